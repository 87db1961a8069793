package env

import (
	"time"

	"github.com/padelt/beanquery/lib/model"
	"github.com/shopspring/decimal"
)

// Targets is the environment of the target list: posting scope,
// aggregates allowed.
func Targets() *Env {
	return &Env{
		name:       "targets",
		columns:    postingColumns(),
		funcs:      functions(),
		wildcard:   []string{"date", "flag", "description", "account", "position"},
		aggregates: true,
	}
}

// FilterPostings is the environment of the WHERE clause: posting
// scope, no aggregates.
func FilterPostings() *Env {
	return &Env{
		name:    "WHERE clause",
		columns: postingColumns(),
		funcs:   functions(),
	}
}

// FilterEntries is the environment of the FROM clause: directive
// scope, no aggregates.
func FilterEntries() *Env {
	return &Env{
		name:    "FROM clause",
		columns: directiveColumns(),
		funcs:   functions(),
	}
}

func directiveColumns() map[string]Column {
	return map[string]Column{
		"date": {Type: Date, Get: func(_ *Context, row Row) any {
			return model.Date(row.Directive)
		}},
		"type": {Type: String, Get: func(_ *Context, row Row) any {
			return model.Kind(row.Directive)
		}},
		"flag": {Type: String, Get: func(_ *Context, row Row) any {
			if row.Txn == nil {
				return ""
			}
			return row.Txn.Flag
		}},
		"description": {Type: String, Get: func(_ *Context, row Row) any {
			if row.Txn == nil {
				return ""
			}
			return row.Txn.Description
		}},
		"tags": {Type: String, Get: func(_ *Context, row Row) any {
			if row.Txn == nil {
				return ""
			}
			return joinTags(row.Txn.Tags)
		}},
	}
}

func postingColumns() map[string]Column {
	res := directiveColumns()
	res["account"] = Column{Type: String, Get: func(_ *Context, row Row) any {
		return row.Posting.Account.Name()
	}}
	res["number"] = Column{Type: Decimal, Get: func(_ *Context, row Row) any {
		return row.Posting.Units.Number
	}}
	res["currency"] = Column{Type: String, Get: func(_ *Context, row Row) any {
		return row.Posting.Units.Commodity.Name()
	}}
	res["units"] = Column{Type: Amount, Get: func(_ *Context, row Row) any {
		return row.Posting.Units
	}}
	res["position"] = Column{Type: Position, Get: func(_ *Context, row Row) any {
		pos := model.NewPosition()
		pos.Add(row.Posting.Units)
		return pos
	}}
	res["cost_number"] = Column{Type: Decimal, Get: func(_ *Context, row Row) any {
		if row.Posting.Cost == nil {
			return decimal.Decimal{}
		}
		return row.Posting.Cost.Number
	}}
	res["cost_currency"] = Column{Type: String, Get: func(_ *Context, row Row) any {
		if row.Posting.Cost == nil {
			return ""
		}
		return row.Posting.Cost.Commodity.Name()
	}}
	res["cost_date"] = Column{Type: Date, Get: func(_ *Context, row Row) any {
		if row.Posting.Cost == nil {
			return time.Time{}
		}
		return row.Posting.Cost.Date
	}}
	res["cost_label"] = Column{Type: String, Get: func(_ *Context, row Row) any {
		if row.Posting.Cost == nil {
			return ""
		}
		return row.Posting.Cost.Label
	}}
	return res
}
