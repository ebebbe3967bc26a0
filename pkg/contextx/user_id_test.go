package contextx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"campus_auction/pkg/contextx"
)

func TestUserID(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	var testUserIDEmpty contextx.UserID

	testUserIDNotEmpty := contextx.UserID("42")

	userID, err := contextx.UserIDFromContext(ctx)
	rq.Equal(testUserIDEmpty, userID)
	rq.ErrorIs(err, contextx.ErrNoValue)
	rq.ErrorContains(err, "user id: no value in context")

	ctx = contextx.WithUserID(ctx, testUserIDNotEmpty)

	userID, err = contextx.UserIDFromContext(ctx)
	rq.Equal(testUserIDNotEmpty, userID)
	rq.NoError(err)
}

func TestUserIDInt64(t *testing.T) {
	testCases := []struct {
		userID  contextx.UserID
		want    int64
		wantErr bool
	}{
		{userID: "42", want: 42},
		{userID: "0", wantErr: true},
		{userID: "-5", wantErr: true},
		{userID: "alice", wantErr: true},
		{userID: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(string(tc.userID), func(t *testing.T) {
			id, err := tc.userID.Int64()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, id)
		})
	}
}
