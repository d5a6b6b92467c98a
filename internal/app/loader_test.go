package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clipfetch/internal/domain"
)

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meta.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTasks_ConcreteScenario(t *testing.T) {
	path := writeTable(t, "key,url,orig_span\n"+
		"a,http://x/1,\"[0,1]\"\n"+
		"b,http://x/2,\"[2,3]\"\n")

	tasks, err := LoadTasks(path)
	require.NoError(t, err)

	require.Len(t, tasks, 2)
	assert.Equal(t, &domain.Task{Key: "a", URL: "http://x/1", Span: domain.Span{Start: 0, End: 1}, Row: 1}, tasks[0])
	assert.Equal(t, &domain.Task{Key: "b", URL: "http://x/2", Span: domain.Span{Start: 2, End: 3}, Row: 2}, tasks[1])
}

func TestLoadTasks_PreservesOrderAndCopiesVerbatim(t *testing.T) {
	var b strings.Builder
	b.WriteString("key,url,orig_span\n")
	keys := []string{"z", "m", "a", "q", "b"}
	for _, k := range keys {
		b.WriteString(k + ",https://www.youtube.com/watch?v=" + k + "&t=10s,\"[0.0, 5.2]\"\n")
	}

	tasks, err := LoadTasks(writeTable(t, b.String()))
	require.NoError(t, err)

	require.Len(t, tasks, len(keys))
	for i, k := range keys {
		assert.Equal(t, k, tasks[i].Key)
		assert.Equal(t, "https://www.youtube.com/watch?v="+k+"&t=10s", tasks[i].URL)
		assert.Equal(t, domain.Span{Start: 0, End: 5.2}, tasks[i].Span)
		assert.Equal(t, i+1, tasks[i].Row)
	}
}

func TestLoadTasks_ColumnOrderAndExtraColumns(t *testing.T) {
	path := writeTable(t, "orig_span,caption,url,key\n"+
		"\"(1.5, 2.5)\",a dog,http://x/1,a\n")

	tasks, err := LoadTasks(path)
	require.NoError(t, err)

	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].Key)
	assert.Equal(t, "http://x/1", tasks[0].URL)
	assert.Equal(t, domain.Span{Start: 1.5, End: 2.5}, tasks[0].Span)
}

func TestLoadTasks_ByteOrderMarkAndPaddedHeader(t *testing.T) {
	path := writeTable(t, "\ufeffkey, url ,orig_span\na,http://x/1,\"[0,1]\"\n")

	tasks, err := LoadTasks(path)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].Key)
}

func TestLoadTasks_HeaderOnly(t *testing.T) {
	tasks, err := LoadTasks(writeTable(t, "key,url,orig_span\n"))
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestLoadTasks_Failures(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		sentinel error
		contains string
	}{
		{
			name:     "missing orig_span column",
			content:  "key,url\na,http://x/1\n",
			sentinel: domain.ErrMissingColumn,
			contains: "orig_span",
		},
		{
			name:     "missing key and url columns",
			content:  "orig_span\n\"[0,1]\"\n",
			sentinel: domain.ErrMissingColumn,
			contains: "key, url",
		},
		{
			name:     "unparsable span",
			content:  "key,url,orig_span\na,http://x/1,\"[0,1]\"\nb,http://x/2,not-a-span\n",
			sentinel: domain.ErrInvalidSpan,
			contains: "row 2",
		},
		{
			name:     "code in span",
			content:  "key,url,orig_span\na,http://x/1,\"__import__('os').system('id')\"\n",
			sentinel: domain.ErrInvalidSpan,
			contains: "row 1",
		},
		{
			name:     "three element span",
			content:  "key,url,orig_span\na,http://x/1,\"[0,1,2]\"\n",
			sentinel: domain.ErrInvalidSpan,
		},
		{
			name:     "duplicate key",
			content:  "key,url,orig_span\na,http://x/1,\"[0,1]\"\nb,http://x/2,\"[0,1]\"\na,http://x/3,\"[0,1]\"\n",
			sentinel: domain.ErrDuplicateKey,
			contains: "first seen on row 1",
		},
		{
			name:     "key with path separator",
			content:  "key,url,orig_span\n../evil,http://x/1,\"[0,1]\"\n",
			sentinel: domain.ErrInvalidKey,
		},
		{
			name:     "empty key",
			content:  "key,url,orig_span\n,http://x/1,\"[0,1]\"\n",
			sentinel: domain.ErrInvalidKey,
		},
		{
			name:     "empty file",
			content:  "",
			sentinel: domain.ErrEmptyTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := LoadTasks(writeTable(t, tt.content))
			require.Error(t, err)
			assert.Nil(t, tasks)
			assert.ErrorIs(t, err, tt.sentinel)
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestLoadTasks_RaggedRow(t *testing.T) {
	tasks, err := LoadTasks(writeTable(t, "key,url,orig_span\na,http://x/1\n"))
	require.Error(t, err)
	assert.Nil(t, tasks)
	assert.Contains(t, err.Error(), "row 1")
}

func TestLoadTasks_MissingFile(t *testing.T) {
	tasks, err := LoadTasks(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Nil(t, tasks)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
