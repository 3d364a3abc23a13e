package step

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestStepUnmarshalArgvCommand(t *testing.T) {
	var s Step
	err := yaml.Unmarshal([]byte(`
name: start-broker
command: ["redis-server", "--daemonize", "yes"]
timeout: 30s
retries: 2
`), &s)
	require.NoError(t, err)

	assert.Equal(t, "start-broker", s.Name)
	assert.Equal(t, []string{"redis-server", "--daemonize", "yes"}, s.Command.Argv)
	assert.True(t, s.Required, "steps default to required")
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, 2, s.Retries)
}

func TestStepUnmarshalShellCommand(t *testing.T) {
	var s Step
	err := yaml.Unmarshal([]byte(`
name: migrate
command: python manage.py migrate --noinput
required: false
`), &s)
	require.NoError(t, err)

	assert.Empty(t, s.Command.Argv)
	assert.Equal(t, "python manage.py migrate --noinput", s.Command.Shell)
	assert.False(t, s.Required)

	argv := s.Command.Resolve()
	require.NotEmpty(t, argv)
	assert.Equal(t, "python manage.py migrate --noinput", argv[len(argv)-1])
}

func TestStepUnmarshalBadTimeout(t *testing.T) {
	var s Step
	err := yaml.Unmarshal([]byte("name: x\ncommand: echo hi\ntimeout: soon\n"), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestStepUnmarshalMappingCommandRejected(t *testing.T) {
	var s Step
	err := yaml.Unmarshal([]byte("name: x\ncommand:\n  exe: echo\n"), &s)
	require.Error(t, err)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "a b c", Command{Argv: []string{"a", "b", "c"}}.String())
	assert.Equal(t, "echo hi", Command{Shell: "echo hi"}.String())
}

func TestValidate(t *testing.T) {
	ok := []Step{
		{Name: "a", Command: Command{Shell: "echo a"}},
		{Name: "b", Command: Command{Argv: []string{"true"}}},
	}
	require.NoError(t, Validate(ok))

	err := Validate(nil)
	assert.ErrorIs(t, err, ErrNoSteps)

	err = Validate([]Step{
		{Name: "a", Command: Command{Shell: "echo"}},
		{Name: "a", Command: Command{Shell: "echo"}},
	})
	assert.ErrorIs(t, err, ErrDuplicateStep)

	err = Validate([]Step{{Name: "", Command: Command{Shell: "echo"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no name")

	err = Validate([]Step{{Name: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command")

	err = Validate([]Step{{Name: "a", Command: Command{Shell: "echo"}, Retries: -1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries")
}
