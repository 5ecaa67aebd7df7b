package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

const playerColumns = `id, username, password, avatar_id, level, xp, total_kills, total_deaths,
	matches_played, matches_won, created_at`

const matchColumns = `id, status, winner_id, started_at, ended_at, created_at`

const participantColumns = `id, match_id, player_id, kills, deaths, score, is_ready, joined_at`

// PostgresGateway 基于PostgreSQL的持久化网关
type PostgresGateway struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresGateway 创建PostgreSQL持久化网关
func NewPostgresGateway(db *sql.DB) *PostgresGateway {
	return &PostgresGateway{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	var p models.Player
	err := row.Scan(&p.ID, &p.Username, &p.Password, &p.AvatarID, &p.Level, &p.XP,
		&p.TotalKills, &p.TotalDeaths, &p.MatchesPlayed, &p.MatchesWon, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m         models.Match
		status    string
		winnerID  sql.NullString
		startedAt sql.NullTime
		endedAt   sql.NullTime
	)
	if err := row.Scan(&m.ID, &status, &winnerID, &startedAt, &endedAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Status = models.MatchStatus(status)
	if winnerID.Valid {
		m.WinnerID = &winnerID.String
	}
	if startedAt.Valid {
		m.StartedAt = &startedAt.Time
	}
	if endedAt.Valid {
		m.EndedAt = &endedAt.Time
	}
	return &m, nil
}

func scanParticipant(row rowScanner) (*models.MatchParticipant, error) {
	var mp models.MatchParticipant
	err := row.Scan(&mp.ID, &mp.MatchID, &mp.PlayerID, &mp.Kills, &mp.Deaths, &mp.Score,
		&mp.IsReady, &mp.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &mp, nil
}

// wrap 将 sql.ErrNoRows 转为 ErrNotFound，其他错误附加上下文
func wrap(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return eris.Wrapf(err, format, args...)
}

// GetPlayer 按ID查询玩家
func (g *PostgresGateway) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	row := g.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	p, err := scanPlayer(row)
	if err != nil {
		return nil, wrap(err, "查询玩家失败: %s", id)
	}
	return p, nil
}

// GetPlayerByUsername 按用户名查询玩家
func (g *PostgresGateway) GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error) {
	row := g.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE username = $1`, username)
	p, err := scanPlayer(row)
	if err != nil {
		return nil, wrap(err, "按用户名查询玩家失败: %s", username)
	}
	return p, nil
}

// CreatePlayer 创建玩家
func (g *PostgresGateway) CreatePlayer(ctx context.Context, data models.NewPlayer) (*models.Player, error) {
	row := g.db.QueryRowContext(ctx, `
		INSERT INTO players (id, username, password, avatar_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+playerColumns,
		uuid.New().String(), data.Username, data.Password, data.AvatarID, g.now())
	p, err := scanPlayer(row)
	if err != nil {
		return nil, eris.Wrapf(err, "创建玩家失败: %s", data.Username)
	}
	return p, nil
}

// UpdatePlayer 更新玩家部分字段
func (g *PostgresGateway) UpdatePlayer(ctx context.Context, id string, update models.PlayerUpdate) (*models.Player, error) {
	if update.IsEmpty() {
		return g.GetPlayer(ctx, id)
	}

	sets := make([]string, 0, 7)
	args := []any{id}
	add := func(column string, value *int) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("avatar_id", update.AvatarID)
	add("level", update.Level)
	add("xp", update.XP)
	add("total_kills", update.TotalKills)
	add("total_deaths", update.TotalDeaths)
	add("matches_played", update.MatchesPlayed)
	add("matches_won", update.MatchesWon)

	query := `UPDATE players SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + playerColumns
	p, err := scanPlayer(g.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, wrap(err, "更新玩家失败: %s", id)
	}
	return p, nil
}

// AddPlayerStats 原子累加玩家累计数据
func (g *PostgresGateway) AddPlayerStats(ctx context.Context, id string, delta models.StatsDelta) (*models.Player, error) {
	row := g.db.QueryRowContext(ctx, `
		UPDATE players SET
			total_kills = total_kills + $2,
			total_deaths = total_deaths + $3,
			matches_played = matches_played + $4,
			matches_won = matches_won + $5,
			xp = xp + $6,
			level = 1 + (xp + $6) / $7
		WHERE id = $1
		RETURNING `+playerColumns,
		id, delta.Kills, delta.Deaths, delta.MatchesPlayed, delta.MatchesWon, delta.XP, models.ExpPerLevel)
	p, err := scanPlayer(row)
	if err != nil {
		return nil, wrap(err, "累加玩家战绩失败: %s", id)
	}
	return p, nil
}

// GetLeaderboard 查询击杀排行榜
func (g *PostgresGateway) GetLeaderboard(ctx context.Context, limit int) ([]models.Player, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT `+playerColumns+` FROM players
		ORDER BY total_kills DESC, matches_won DESC, created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "查询排行榜失败")
	}
	defer rows.Close()

	players := make([]models.Player, 0, limit)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, eris.Wrap(err, "解析排行榜失败")
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "遍历排行榜失败")
	}
	return players, nil
}

// CreateMatch 创建等待中的对局
func (g *PostgresGateway) CreateMatch(ctx context.Context) (*models.Match, error) {
	row := g.db.QueryRowContext(ctx, `
		INSERT INTO matches (id, status, created_at) VALUES ($1, $2, $3)
		RETURNING `+matchColumns,
		uuid.New().String(), string(models.MatchWaiting), g.now())
	m, err := scanMatch(row)
	if err != nil {
		return nil, eris.Wrap(err, "创建对局失败")
	}
	return m, nil
}

// GetMatch 查询对局
func (g *PostgresGateway) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	m, err := scanMatch(g.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(err, "查询对局失败: %s", id)
	}
	return m, nil
}

// UpdateMatch 更新对局部分字段
func (g *PostgresGateway) UpdateMatch(ctx context.Context, id string, update models.MatchUpdate) (*models.Match, error) {
	sets := make([]string, 0, 4)
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Status != nil {
		add("status", string(*update.Status))
	}
	if update.WinnerID != nil {
		add("winner_id", *update.WinnerID)
	}
	if update.StartedAt != nil {
		add("started_at", *update.StartedAt)
	}
	if update.EndedAt != nil {
		add("ended_at", *update.EndedAt)
	}
	if len(sets) == 0 {
		return g.GetMatch(ctx, id)
	}

	query := `UPDATE matches SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + matchColumns
	m, err := scanMatch(g.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, wrap(err, "更新对局失败: %s", id)
	}
	return m, nil
}

// GetWaitingMatch 查询最早的等待中对局
func (g *PostgresGateway) GetWaitingMatch(ctx context.Context) (*models.Match, error) {
	row := g.db.QueryRowContext(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT 1`, string(models.MatchWaiting))
	m, err := scanMatch(row)
	if err != nil {
		return nil, wrap(err, "查询等待中对局失败")
	}
	return m, nil
}

// AddParticipant 添加参赛记录，已存在时返回原记录
func (g *PostgresGateway) AddParticipant(ctx context.Context, matchID, playerID string) (*models.MatchParticipant, error) {
	row := g.db.QueryRowContext(ctx, `
		INSERT INTO match_participants (id, match_id, player_id, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (match_id, player_id) DO NOTHING
		RETURNING `+participantColumns,
		uuid.New().String(), matchID, playerID, g.now())
	mp, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return g.GetParticipant(ctx, matchID, playerID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "添加参赛记录失败: %s/%s", matchID, playerID)
	}
	return mp, nil
}

// GetParticipant 查询参赛记录
func (g *PostgresGateway) GetParticipant(ctx context.Context, matchID, playerID string) (*models.MatchParticipant, error) {
	row := g.db.QueryRowContext(ctx, `
		SELECT `+participantColumns+` FROM match_participants
		WHERE match_id = $1 AND player_id = $2`, matchID, playerID)
	mp, err := scanParticipant(row)
	if err != nil {
		return nil, wrap(err, "查询参赛记录失败: %s/%s", matchID, playerID)
	}
	return mp, nil
}

// GetParticipants 查询对局全部参赛记录
func (g *PostgresGateway) GetParticipants(ctx context.Context, matchID string) ([]models.MatchParticipant, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT `+participantColumns+` FROM match_participants
		WHERE match_id = $1
		ORDER BY joined_at ASC`, matchID)
	if err != nil {
		return nil, eris.Wrapf(err, "查询参赛记录失败: %s", matchID)
	}
	defer rows.Close()

	var result []models.MatchParticipant
	for rows.Next() {
		mp, err := scanParticipant(rows)
		if err != nil {
			return nil, eris.Wrap(err, "解析参赛记录失败")
		}
		result = append(result, *mp)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "遍历参赛记录失败")
	}
	return result, nil
}

// UpdateParticipant 写入单局结算数据
func (g *PostgresGateway) UpdateParticipant(ctx context.Context, matchID, playerID string, result models.ParticipantResult) error {
	res, err := g.db.ExecContext(ctx, `
		UPDATE match_participants SET kills = $3, deaths = $4, score = $5
		WHERE match_id = $1 AND player_id = $2`,
		matchID, playerID, result.Kills, result.Deaths, result.Score)
	if err != nil {
		return eris.Wrapf(err, "更新参赛记录失败: %s/%s", matchID, playerID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "读取影响行数失败")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
