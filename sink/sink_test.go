package sink

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/swdee/vidtrack"
)

// recordSink remembers the frames it was given and fails on request
type recordSink struct {
	name    string
	err     error
	indexes []int
	closed  bool
}

func (r *recordSink) Name() string {
	return r.name
}

func (r *recordSink) Write(f Frame) error {
	r.indexes = append(r.indexes, f.Index)
	return r.err
}

func (r *recordSink) Close() error {
	r.closed = true
	return r.err
}

func testFanout() (*Fanout, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewFanout(logrus.NewEntry(logger)), hook
}

func TestFanoutIsolatesFailures(t *testing.T) {

	f, hook := testFanout()

	broken := &recordSink{name: "broken", err: errors.New("disk full")}
	good := &recordSink{name: "good"}

	f.Add(broken, false)
	f.Add(good, false)
	require.Equal(t, 2, f.Len())

	require.NoError(t, f.Write(Frame{Index: 4}))
	require.Equal(t, []int{4}, good.indexes)

	require.Len(t, hook.Entries, 1)
	require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	require.Equal(t, "broken", hook.LastEntry().Data["sink"])
	require.ErrorIs(t, hook.LastEntry().Data[logrus.ErrorKey].(error), vidtrack.ErrSinkWrite)
}

func TestFanoutFatalSink(t *testing.T) {

	f, _ := testFanout()

	fatal := &recordSink{name: "fatal", err: errors.New("encoder gone")}
	after := &recordSink{name: "after"}

	f.Add(fatal, true)
	f.Add(after, false)

	err := f.Write(Frame{Index: 1})
	require.ErrorIs(t, err, vidtrack.ErrSinkWrite)
	require.Equal(t, []int{1}, after.indexes)
}

func TestFanoutUserInterrupt(t *testing.T) {

	f, hook := testFanout()

	window := &recordSink{name: "preview", err: vidtrack.ErrUserInterrupt}
	video := &recordSink{name: "video"}

	f.Add(window, false)
	f.Add(video, true)

	require.ErrorIs(t, f.Write(Frame{}), vidtrack.ErrUserInterrupt)
	require.Equal(t, []int{0}, video.indexes)
	require.Empty(t, hook.Entries)
}

func TestFanoutCloseAll(t *testing.T) {

	f, _ := testFanout()

	a := &recordSink{name: "a", err: errors.New("close failed")}
	b := &recordSink{name: "b"}

	f.Add(a, false)
	f.Add(b, false)

	require.Error(t, f.Close())
	require.True(t, a.closed)
	require.True(t, b.closed)
	require.Equal(t, 0, f.Len())
}
