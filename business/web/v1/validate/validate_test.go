package validate_test

import (
	"testing"

	"github.com/alex-kampa/realitycheck/business/web/v1/validate"
	"github.com/stretchr/testify/require"
)

type answer struct {
	QuestionID string `json:"question_id" validate:"required,hash"`
	Sender     string `json:"sender" validate:"required,eth_addr"`
	Bond       uint64 `json:"bond"`
}

func TestCheck(t *testing.T) {
	ok := answer{
		QuestionID: "0x23e796d2bf4f5f890b1242934a636f4802aadd480b6f83c754d2bd5920f78845",
		Sender:     "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4",
	}
	require.NoError(t, validate.Check(ok))

	bad := answer{QuestionID: "0x1234", Sender: "kennedy"}
	err := validate.Check(bad)
	require.True(t, validate.IsFieldErrors(err))

	fields := validate.GetFieldErrors(err).Fields()
	require.Contains(t, fields, "question_id")
	require.Contains(t, fields, "sender")
	require.Equal(t, "question_id must be a 32 byte hex value", fields["question_id"])
}
