package display

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func command(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	root := &cobra.Command{Use: "root"}
	root.PersistentFlags().Bool("json", false, "")
	var ran *cobra.Command
	child := &cobra.Command{Use: "child", Run: func(c *cobra.Command, _ []string) { ran = c }}
	child.Flags().Bool("json", false, "")
	root.AddCommand(child)
	root.SetOut(&out)
	root.SetArgs(append([]string{"child"}, args...))
	require.NoError(t, root.Execute())
	return ran, &out
}

func TestShouldOutputJSON(t *testing.T) {
	assert.False(t, ShouldOutputJSON(nil))

	c, _ := command(t)
	assert.False(t, ShouldOutputJSON(c))

	c, _ = command(t, "--json")
	assert.True(t, ShouldOutputJSON(c))
}

func TestTableJSON(t *testing.T) {
	c, out := command(t, "--json")
	require.NoError(t, Table(c, []string{"ID", "Label"}, [][]string{{"(0,1,100)", "Person"}, {"(0,1,101)"}}))

	var got []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []map[string]string{
		{"ID": "(0,1,100)", "Label": "Person"},
		{"ID": "(0,1,101)"},
	}, got)
}

func TestTableText(t *testing.T) {
	c, out := command(t)
	require.NoError(t, Table(c, []string{"ID", "Label"}, [][]string{{"(0,1,100)", "Person"}}))
	assert.Contains(t, out.String(), "Person")
}
