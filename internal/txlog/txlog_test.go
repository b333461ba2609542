package txlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.log")

	writer, err := Open(path)
	require.NoError(t, err)

	first, err := writer.Append(Record{Source: "/s/a.jpg", Destination: "/t/a.jpg", Op: "copy"})
	require.NoError(t, err)
	second, err := writer.Append(Record{Source: "/s/b.jpg", Destination: "/t/b.jpg", Op: "move", Checksum: "abc"})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, writer.Batch(), first.Batch)
	assert.Equal(t, writer.Batch(), second.Batch)
	assert.False(t, first.CompletedAt.IsZero())

	records, err := Read(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "/s/a.jpg", records[0].Source)
	assert.Equal(t, "copy", records[0].Op)
	assert.Equal(t, "/t/b.jpg", records[1].Destination)
	assert.Equal(t, "abc", records[1].Checksum)
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "tx.log")

	writer, err := Open(path)
	require.NoError(t, err)
	defer writer.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestAppendAcrossBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.log")

	writer, err := Open(path)
	require.NoError(t, err)
	_, err = writer.Append(Record{Source: "/s/a.jpg", Destination: "/t/a.jpg", Op: "copy"})
	require.NoError(t, err)
	firstBatch := writer.Batch()
	require.NoError(t, writer.Close())

	// A second run appends to the same file under a new batch id.
	writer, err = Open(path)
	require.NoError(t, err)
	_, err = writer.Append(Record{Source: "/s/b.jpg", Destination: "/t/b.jpg", Op: "move"})
	require.NoError(t, err)
	secondBatch := writer.Batch()
	require.NoError(t, writer.Close())

	require.NotEqual(t, firstBatch, secondBatch)

	records, err := Read(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Len(t, ForBatch(records, firstBatch), 1)
	assert.Equal(t, "/s/b.jpg", ForBatch(records, secondBatch)[0].Source)
	assert.Empty(t, ForBatch(records, "unknown"))
}

func TestPruneDropsOnlyOneBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.log")

	writer, err := Open(path)
	require.NoError(t, err)
	_, err = writer.Append(Record{Source: "/s/a.jpg", Destination: "/t/a.jpg", Op: "copy"})
	require.NoError(t, err)
	firstBatch := writer.Batch()
	require.NoError(t, writer.Close())

	writer, err = Open(path)
	require.NoError(t, err)
	_, err = writer.Append(Record{Source: "/s/b.jpg", Destination: "/t/b.jpg", Op: "move"})
	require.NoError(t, err)
	secondBatch := writer.Batch()
	require.NoError(t, writer.Close())

	require.NoError(t, Prune(path, secondBatch))

	records, err := Read(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, firstBatch, records[0].Batch)
	assert.Equal(t, "/s/a.jpg", records[0].Source)
}

func TestPruneRemovesEmptiedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.log")

	writer, err := Open(path)
	require.NoError(t, err)
	_, err = writer.Append(Record{Source: "/s/a.jpg", Destination: "/t/a.jpg", Op: "copy"})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	require.NoError(t, Prune(path, writer.Batch()))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDiscardRemovesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.log")

	writer, err := Open(path)
	require.NoError(t, err)
	_, err = writer.Append(Record{Source: "/s/a.jpg", Destination: "/t/a.jpg", Op: "copy"})
	require.NoError(t, err)

	require.NoError(t, writer.Discard())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestReadSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.log")
	content := `{"id":"1","batch":"b","source":"/s/a.jpg","destination":"/t/a.jpg","op":"copy","completed_at":"2024-01-01T00:00:00Z"}

{"id":"2","batch":"b","source":"/s/b.jpg","destination":"/t/b.jpg","op":"move","completed_at":"2024-01-01T00:00:01Z"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := Read(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReadRejectsCorruptRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.log")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))

	_, err := Read(path)
	assert.Error(t, err)
}
