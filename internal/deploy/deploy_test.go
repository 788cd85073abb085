package deploy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackpilot/stackpilot/internal/runner"
)

type cannedRunner struct {
	result runner.Result
	got    runner.Command
}

func (r *cannedRunner) Run(_ context.Context, cmd runner.Command) runner.Result {
	r.got = cmd
	return r.result
}

func TestDeploySuccessReturnsLines(t *testing.T) {
	fake := &cannedRunner{result: runner.Result{
		OK:     true,
		Output: "Deploying...\r\nhttps://demo-abc123.vercel.app\nAliased: https://demo.vercel.app\n",
	}}
	d := New(fake, t.TempDir())

	ok, lines := d.Deploy(context.Background())
	assert.True(t, ok)
	require.Equal(t, []string{
		"Deploying...",
		"https://demo-abc123.vercel.app",
		"Aliased: https://demo.vercel.app",
	}, lines)
	assert.Equal(t, []string{"deploy", "--prod", "--yes"}, fake.got.Args)
}

func TestDeployFailureStillCarriesOutput(t *testing.T) {
	fake := &cannedRunner{result: runner.Result{
		OK:     false,
		Output: "Error: Command \"npm run build\" exited with 1",
	}}
	d := New(fake, t.TempDir())

	ok, lines := d.Deploy(context.Background())
	assert.False(t, ok)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "exited with 1")
}

func TestDeployEmptyOutput(t *testing.T) {
	d := New(&cannedRunner{result: runner.Result{OK: true}}, t.TempDir())

	ok, lines := d.Deploy(context.Background())
	assert.True(t, ok)
	assert.Nil(t, lines)
}
