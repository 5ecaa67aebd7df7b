package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

// MemoryGateway 进程内持久化网关，用于本地开发与测试
type MemoryGateway struct {
	mu           sync.RWMutex
	players      map[string]*models.Player
	matches      map[string]*models.Match
	matchOrder   []string
	participants map[string]map[string]*models.MatchParticipant // matchID -> playerID
	now          func() time.Time
}

// NewMemoryGateway 创建内存持久化网关
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		players:      make(map[string]*models.Player),
		matches:      make(map[string]*models.Match),
		participants: make(map[string]map[string]*models.MatchParticipant),
		now:          time.Now,
	}
}

func copyPlayer(p *models.Player) *models.Player {
	c := *p
	return &c
}

func copyMatch(m *models.Match) *models.Match {
	c := *m
	return &c
}

// GetPlayer 按ID查询玩家
func (g *MemoryGateway) GetPlayer(_ context.Context, id string) (*models.Player, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPlayer(p), nil
}

// GetPlayerByUsername 按用户名查询玩家
func (g *MemoryGateway) GetPlayerByUsername(_ context.Context, username string) (*models.Player, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, p := range g.players {
		if p.Username == username {
			return copyPlayer(p), nil
		}
	}
	return nil, ErrNotFound
}

// CreatePlayer 创建玩家
func (g *MemoryGateway) CreatePlayer(_ context.Context, data models.NewPlayer) (*models.Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.players {
		if p.Username == data.Username {
			return nil, eris.Errorf("用户名已存在: %s", data.Username)
		}
	}
	p := &models.Player{
		ID:        uuid.New().String(),
		Username:  data.Username,
		Password:  data.Password,
		AvatarID:  data.AvatarID,
		Level:     1,
		CreatedAt: g.now(),
	}
	g.players[p.ID] = p
	return copyPlayer(p), nil
}

// UpdatePlayer 更新玩家部分字段
func (g *MemoryGateway) UpdatePlayer(_ context.Context, id string, update models.PlayerUpdate) (*models.Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.AvatarID, update.AvatarID)
	set(&p.Level, update.Level)
	set(&p.XP, update.XP)
	set(&p.TotalKills, update.TotalKills)
	set(&p.TotalDeaths, update.TotalDeaths)
	set(&p.MatchesPlayed, update.MatchesPlayed)
	set(&p.MatchesWon, update.MatchesWon)
	return copyPlayer(p), nil
}

// AddPlayerStats 原子累加玩家累计数据
func (g *MemoryGateway) AddPlayerStats(_ context.Context, id string, delta models.StatsDelta) (*models.Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.TotalKills += delta.Kills
	p.TotalDeaths += delta.Deaths
	p.MatchesPlayed += delta.MatchesPlayed
	p.MatchesWon += delta.MatchesWon
	p.XP += delta.XP
	p.Level = models.LevelForXP(p.XP)
	return copyPlayer(p), nil
}

// GetLeaderboard 查询击杀排行榜
func (g *MemoryGateway) GetLeaderboard(_ context.Context, limit int) ([]models.Player, error) {
	g.mu.RLock()
	players := make([]models.Player, 0, len(g.players))
	for _, p := range g.players {
		players = append(players, *p)
	}
	g.mu.RUnlock()

	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.TotalKills != b.TotalKills {
			return a.TotalKills > b.TotalKills
		}
		if a.MatchesWon != b.MatchesWon {
			return a.MatchesWon > b.MatchesWon
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if limit >= 0 && len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

// CreateMatch 创建等待中的对局
func (g *MemoryGateway) CreateMatch(_ context.Context) (*models.Match, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := &models.Match{
		ID:        uuid.New().String(),
		Status:    models.MatchWaiting,
		CreatedAt: g.now(),
	}
	g.matches[m.ID] = m
	g.matchOrder = append(g.matchOrder, m.ID)
	return copyMatch(m), nil
}

// GetMatch 查询对局
func (g *MemoryGateway) GetMatch(_ context.Context, id string) (*models.Match, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyMatch(m), nil
}

// UpdateMatch 更新对局部分字段
func (g *MemoryGateway) UpdateMatch(_ context.Context, id string, update models.MatchUpdate) (*models.Match, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Status != nil {
		m.Status = *update.Status
	}
	if update.WinnerID != nil {
		w := *update.WinnerID
		m.WinnerID = &w
	}
	if update.StartedAt != nil {
		t := *update.StartedAt
		m.StartedAt = &t
	}
	if update.EndedAt != nil {
		t := *update.EndedAt
		m.EndedAt = &t
	}
	return copyMatch(m), nil
}

// GetWaitingMatch 查询最早的等待中对局
func (g *MemoryGateway) GetWaitingMatch(_ context.Context) (*models.Match, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, id := range g.matchOrder {
		if m := g.matches[id]; m.Status == models.MatchWaiting {
			return copyMatch(m), nil
		}
	}
	return nil, ErrNotFound
}

// AddParticipant 添加参赛记录，已存在时返回原记录
func (g *MemoryGateway) AddParticipant(_ context.Context, matchID, playerID string) (*models.MatchParticipant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.matches[matchID]; !ok {
		return nil, ErrNotFound
	}
	byPlayer, ok := g.participants[matchID]
	if !ok {
		byPlayer = make(map[string]*models.MatchParticipant)
		g.participants[matchID] = byPlayer
	}
	if mp, ok := byPlayer[playerID]; ok {
		c := *mp
		return &c, nil
	}
	mp := &models.MatchParticipant{
		ID:       uuid.New().String(),
		MatchID:  matchID,
		PlayerID: playerID,
		JoinedAt: g.now(),
	}
	byPlayer[playerID] = mp
	c := *mp
	return &c, nil
}

// GetParticipant 查询参赛记录
func (g *MemoryGateway) GetParticipant(_ context.Context, matchID, playerID string) (*models.MatchParticipant, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	mp, ok := g.participants[matchID][playerID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *mp
	return &c, nil
}

// GetParticipants 查询对局全部参赛记录
func (g *MemoryGateway) GetParticipants(_ context.Context, matchID string) ([]models.MatchParticipant, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	result := make([]models.MatchParticipant, 0, len(g.participants[matchID]))
	for _, mp := range g.participants[matchID] {
		result = append(result, *mp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})
	return result, nil
}

// UpdateParticipant 写入单局结算数据
func (g *MemoryGateway) UpdateParticipant(_ context.Context, matchID, playerID string, result models.ParticipantResult) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	mp, ok := g.participants[matchID][playerID]
	if !ok {
		return ErrNotFound
	}
	mp.Kills = result.Kills
	mp.Deaths = result.Deaths
	mp.Score = result.Score
	return nil
}
