package workers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhive/retrieval-engine/internal/types"
)

func TestNewBatchCycleTask(t *testing.T) {
	task, err := NewBatchCycleTask(types.OpSummarize, types.TableIssues)
	require.NoError(t, err)
	assert.Equal(t, TaskBatchCycle, task.Type())

	var payload BatchCyclePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, types.OpSummarize, payload.Op)
	assert.Equal(t, types.TableIssues, payload.Table)
}

func TestNewBatchMonitorTask(t *testing.T) {
	task := NewBatchMonitorTask()
	assert.Equal(t, TaskBatchMonitor, task.Type())
	assert.Empty(t, task.Payload())
}
