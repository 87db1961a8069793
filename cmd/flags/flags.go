package flags

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/padelt/beanquery/lib/common/regex"
	"github.com/padelt/beanquery/lib/model"
)

// DateFlag manages a flag to determine a date.
type DateFlag time.Time

var _ pflag.Value = (*DateFlag)(nil)

func (tf DateFlag) String() string {
	return tf.Value().String()
}

// Set implements pflag.Value.
func (tf *DateFlag) Set(v string) error {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return err
	}
	*tf = (DateFlag)(t)
	return nil
}

// Type implements pflag.Value.
func (tf DateFlag) Type() string {
	return "YYYY-MM-DD"
}

// Value returns the flag value.
func (tf DateFlag) Value() time.Time {
	return time.Time(tf)
}

// RegexFlag manages a repeatable flag collecting regexes.
type RegexFlag struct {
	rxs regex.Regexes
}

var _ pflag.Value = (*RegexFlag)(nil)

func (rf RegexFlag) String() string {
	var ss []string
	for _, r := range rf.rxs {
		ss = append(ss, r.String())
	}
	return strings.Join(ss, ",")
}

// Set implements pflag.Value.
func (rf *RegexFlag) Set(v string) error {
	t, err := regexp.Compile(v)
	if err != nil {
		return err
	}
	rf.rxs.Add(t)
	return nil
}

// Type implements pflag.Value.
func (rf RegexFlag) Type() string {
	return "<regex>"
}

func (rf *RegexFlag) Value() regex.Regexes {
	return rf.rxs
}

// OptionsFlag manages a flag pointing to a YAML options file.
type OptionsFlag struct {
	path string
}

var _ pflag.Value = (*OptionsFlag)(nil)

func (of OptionsFlag) String() string {
	return of.path
}

// Set implements pflag.Value.
func (of *OptionsFlag) Set(v string) error {
	of.path = v
	return nil
}

// Type implements pflag.Value.
func (of OptionsFlag) Type() string {
	return "<options.yaml>"
}

// Value loads the options file, or returns the defaults when the flag
// is unset.
func (of OptionsFlag) Value() (*model.Options, error) {
	if of.path == "" {
		return model.DefaultOptions(), nil
	}
	text, err := os.ReadFile(of.path)
	if err != nil {
		return nil, err
	}
	return model.ParseOptions(text)
}
