package events_test

import (
	"testing"
	"time"

	"github.com/alex-kampa/realitycheck/foundation/events"
	"github.com/stretchr/testify/require"
)

const qid = "0x6f2c1a7d94b34bd6d0d8d3cfd1bd1ba16a4b8e6fce5e6b1bd4ef2b8d5d06c1a2"

func TestParse(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tt := []struct {
		name string
		msg  string
		exp  events.Event
	}{
		{
			name: "question",
			msg:  "state: SubmitAnswer: question[" + qid + "] sender[0x01] bond[4]",
			exp: events.Event{
				Source:     "state",
				Operation:  "SubmitAnswer",
				QuestionID: qid,
				Message:    "question[" + qid + "] sender[0x01] bond[4]",
				TimeStamp:  now.UTC(),
			},
		},
		{
			name: "account",
			msg:  "state: Withdraw: account[0x01] value[1001]",
			exp: events.Event{
				Source:    "state",
				Operation: "Withdraw",
				Message:   "account[0x01] value[1001]",
				TimeStamp: now.UTC(),
			},
		},
		{
			name: "free form",
			msg:  "service started",
			exp: events.Event{
				Message:   "service started",
				TimeStamp: now.UTC(),
			},
		},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			require.Equal(t, tst.exp, events.Parse(tst.msg, now))
		})
	}
}

func TestSendReachesEveryReceiver(t *testing.T) {
	evts := events.New()

	a := evts.Acquire("a")
	b := evts.Acquire("b")
	require.Equal(t, 2, evts.Len())
	require.Equal(t, a, evts.Acquire("a"))

	evts.Send("state: SubmitAnswer: question[0x01]")

	ev := <-a
	require.Equal(t, "state", ev.Source)
	require.Equal(t, "0x01", ev.QuestionID)
	require.Equal(t, ev, <-b)

	require.NoError(t, evts.Release("a"))
	require.Error(t, evts.Release("a"))

	_, open := <-a
	require.False(t, open)

	evts.Shutdown()
	require.Equal(t, 0, evts.Len())

	_, open = <-b
	require.False(t, open)
}

func TestFilters(t *testing.T) {
	evts := events.New()
	defer evts.Shutdown()

	question := evts.Acquire("question", events.ForQuestion(qid))
	callbacks := evts.Acquire("callbacks", events.FromSource("callback"))
	both := evts.Acquire("both", events.FromSource("callback"), events.ForQuestion(qid))

	evts.Send("state: SubmitAnswer: question[" + qid + "] bond[1]")
	evts.Send("state: SubmitAnswer: question[0x02] bond[1]")
	evts.Send("callback: Register: client[0x03]")
	evts.Send("callback: SendCallback: question[" + qid + "] client[0x03]")

	require.Len(t, question, 2)
	require.Equal(t, "SubmitAnswer", (<-question).Operation)
	require.Equal(t, "SendCallback", (<-question).Operation)

	require.Len(t, callbacks, 2)
	require.Len(t, both, 1)
	require.Equal(t, qid, (<-both).QuestionID)
}

func TestSendDoesNotBlock(t *testing.T) {
	evts := events.New()
	ch := evts.Acquire("slow")

	for range 1000 {
		evts.Send("state: Tick: value[1]")
	}

	require.Len(t, ch, cap(ch))
	require.Equal(t, uint64(1000-cap(ch)), evts.Dropped())
	evts.Shutdown()
}
