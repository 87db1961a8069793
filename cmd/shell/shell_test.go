package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

const testLedger = `2024-01-01 open Assets:Bank USD
2024-01-01 open Expenses:Food USD

2024-01-02 * "lunch"
  Expenses:Food 20 USD
  Assets:Bank -20 USD
`

func TestShellSurvivesEvaluationFault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.ledger")
	if err := os.WriteFile(path, []byte(testLedger), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	c := new(cobra.Command)
	c.SetIn(strings.NewReader("SELECT 1 / 0\nSELECT account WHERE account ~ 'Expenses'\nexit\n"))
	c.SetOut(&out)
	c.SetErr(&errOut)

	var r runner
	if err := r.execute(c, []string{path}); err != nil {
		t.Fatalf("execute() = %v", err)
	}
	if !strings.Contains(errOut.String(), "divide by zero") {
		t.Errorf("stderr lacks the evaluation fault:\n%s", errOut.String())
	}
	// the statement after the fault still runs
	if !strings.Contains(out.String(), "Expenses:Food") {
		t.Errorf("output lacks the result of the second statement:\n%s", out.String())
	}
}
