package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

var (
	playerCols      = []string{"id", "username", "password", "avatar_id", "level", "xp", "total_kills", "total_deaths", "matches_played", "matches_won", "created_at"}
	matchCols       = []string{"id", "status", "winner_id", "started_at", "ended_at", "created_at"}
	participantCols = []string{"id", "match_id", "player_id", "kills", "deaths", "score", "is_ready", "joined_at"}
)

func newMockGateway(t *testing.T) (*PostgresGateway, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresGateway(db), mock
}

func TestPostgresGetPlayer(t *testing.T) {
	g, mock := newMockGateway(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM players WHERE id = $1")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(playerCols).
			AddRow("p1", "alice", "hash", 2, 3, 2100, 10, 4, 5, 2, now))

	p, err := g.GetPlayer(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, 2100, p.XP)
	assert.Equal(t, 2, p.MatchesWon)
}

func TestPostgresGetPlayerNotFound(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM players WHERE id = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(playerCols))

	_, err := g.GetPlayer(context.Background(), "ghost")
	assert.True(t, IsNotFound(err))
}

func TestPostgresAddPlayerStatsIsSingleStatement(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectQuery(regexp.QuoteMeta("total_kills = total_kills + $2")).
		WithArgs("p1", 3, 1, 1, 1, 800, models.ExpPerLevel).
		WillReturnRows(sqlmock.NewRows(playerCols).
			AddRow("p1", "alice", "hash", 0, 1, 800, 3, 1, 1, 1, time.Now()))

	p, err := g.AddPlayerStats(context.Background(), "p1", models.StatsDelta{
		Kills: 3, Deaths: 1, MatchesPlayed: 1, MatchesWon: 1, XP: 800,
	})
	require.NoError(t, err)
	assert.Equal(t, 800, p.XP)
}

func TestPostgresUpdatePlayerBuildsPartialSet(t *testing.T) {
	g, mock := newMockGateway(t)
	avatar := 4

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE players SET avatar_id = $2 WHERE id = $1")).
		WithArgs("p1", 4).
		WillReturnRows(sqlmock.NewRows(playerCols).
			AddRow("p1", "alice", "hash", 4, 1, 0, 0, 0, 0, 0, time.Now()))

	p, err := g.UpdatePlayer(context.Background(), "p1", models.PlayerUpdate{AvatarID: &avatar})
	require.NoError(t, err)
	assert.Equal(t, 4, p.AvatarID)
}

func TestPostgresGetWaitingMatch(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1")).
		WithArgs("waiting").
		WillReturnRows(sqlmock.NewRows(matchCols).
			AddRow("m1", "waiting", nil, nil, nil, time.Now()))

	m, err := g.GetWaitingMatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.MatchWaiting, m.Status)
	assert.Nil(t, m.WinnerID)
	assert.Nil(t, m.StartedAt)
}

func TestPostgresUpdateMatchEnded(t *testing.T) {
	g, mock := newMockGateway(t)
	ended := models.MatchEnded
	winner := "p1"
	at := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE matches SET status = $2, winner_id = $3, ended_at = $4 WHERE id = $1")).
		WithArgs("m1", "ended", "p1", at).
		WillReturnRows(sqlmock.NewRows(matchCols).
			AddRow("m1", "ended", "p1", at, at, at))

	m, err := g.UpdateMatch(context.Background(), "m1", models.MatchUpdate{Status: &ended, WinnerID: &winner, EndedAt: &at})
	require.NoError(t, err)
	require.NotNil(t, m.WinnerID)
	assert.Equal(t, "p1", *m.WinnerID)
}

func TestPostgresAddParticipantReturnsExistingRow(t *testing.T) {
	g, mock := newMockGateway(t)
	joined := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (match_id, player_id) DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "m1", "p1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(participantCols))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE match_id = $1 AND player_id = $2")).
		WithArgs("m1", "p1").
		WillReturnRows(sqlmock.NewRows(participantCols).
			AddRow("mp1", "m1", "p1", 0, 0, 0, false, joined))

	mp, err := g.AddParticipant(context.Background(), "m1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "mp1", mp.ID)
}

func TestPostgresUpdateParticipantMissingRow(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE match_participants SET")).
		WithArgs("m1", "p1", 2, 1, 200).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := g.UpdateParticipant(context.Background(), "m1", "p1", models.ParticipantResult{Kills: 2, Deaths: 1, Score: 200})
	assert.True(t, IsNotFound(err))
}
