package postgresql

import (
	"testing"

	"github.com/bittoy/pipeline/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsDSNAndTasksFromValidConfig(t *testing.T) {
	node, err := New("pg", types.Configuration{
		"connection": map[string]any{
			"dbname": "widgets",
			"user":   "scott",
		},
		"tasks": map[string]any{
			"refresh": map[string]any{
				"cron":    "*/5 * * * *",
				"query":   "select * from widgets",
				"outputs": []any{"sink"},
			},
		},
	})
	require.NoError(t, err)
	s := node.(*Spring)

	assert.Contains(t, s.dsn, "dbname=widgets")
	assert.Contains(t, s.dsn, "user=scott")
	assert.Contains(t, s.dsn, "host=localhost")
	assert.Contains(t, s.dsn, "port=5432")

	tasks := s.PeriodicTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "refresh", tasks[0].Name)
	assert.Equal(t, "*/5 * * * *", tasks[0].Schedule)
	assert.Equal(t, []string{"sink"}, tasks[0].OutputIDs)
	assert.Equal(t, []any{"select * from widgets", 60}, tasks[0].Args)
}

func TestNewRejectsMissingRequiredConnectionField(t *testing.T) {
	_, err := New("pg", types.Configuration{
		"connection": map[string]any{"user": "scott"},
		"tasks": map[string]any{
			"refresh": map[string]any{
				"cron":    "* * * * *",
				"query":   "select 1",
				"outputs": []any{"sink"},
			},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dbname")
}

func TestNewRejectsTaskWithoutOutputs(t *testing.T) {
	_, err := New("pg", types.Configuration{
		"connection": map[string]any{"dbname": "widgets", "user": "scott"},
		"tasks": map[string]any{
			"refresh": map[string]any{
				"cron":  "* * * * *",
				"query": "select 1",
			},
		},
	})
	require.Error(t, err)
}
