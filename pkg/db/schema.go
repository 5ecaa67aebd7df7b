// schema.go

package db

import "database/sql"

// 统一的数据库表结构定义

// CreateAllTablesSQL 创建所有表的SQL语句
const CreateAllTablesSQL = `
-- 玩家表
CREATE TABLE IF NOT EXISTS players (
    id VARCHAR(36) PRIMARY KEY,
    username TEXT UNIQUE NOT NULL,
    password TEXT NOT NULL,
    avatar_id INT NOT NULL DEFAULT 0,
    level INT NOT NULL DEFAULT 1,
    xp INT NOT NULL DEFAULT 0,
    total_kills INT NOT NULL DEFAULT 0,
    total_deaths INT NOT NULL DEFAULT 0,
    matches_played INT NOT NULL DEFAULT 0,
    matches_won INT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- 对局表
CREATE TABLE IF NOT EXISTS matches (
    id VARCHAR(36) PRIMARY KEY,
    status VARCHAR(16) NOT NULL DEFAULT 'waiting',
    winner_id VARCHAR(36) REFERENCES players(id) ON DELETE SET NULL,
    started_at TIMESTAMP WITH TIME ZONE,
    ended_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- 玩家对局记录表
CREATE TABLE IF NOT EXISTS match_participants (
    id VARCHAR(36) PRIMARY KEY,
    match_id VARCHAR(36) NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
    player_id VARCHAR(36) NOT NULL REFERENCES players(id) ON DELETE CASCADE,
    kills INT NOT NULL DEFAULT 0,
    deaths INT NOT NULL DEFAULT 0,
    score INT NOT NULL DEFAULT 0,
    is_ready BOOLEAN NOT NULL DEFAULT false,
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (match_id, player_id)
);

-- 创建索引以提高查询性能
CREATE INDEX IF NOT EXISTS idx_players_total_kills ON players(total_kills DESC);
CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status, created_at);
CREATE INDEX IF NOT EXISTS idx_match_participants_player_id ON match_participants(player_id);
`

// DropAllTablesSQL 删除所有表
const DropAllTablesSQL = `
DROP TABLE IF EXISTS match_participants CASCADE;
DROP TABLE IF EXISTS matches CASCADE;
DROP TABLE IF EXISTS players CASCADE;
`

// InitAllTables 初始化所有数据库表
func InitAllTables(conn *sql.DB) error {
	_, err := conn.Exec(CreateAllTablesSQL)
	return err
}

// DropAllTables 删除所有数据库表
func DropAllTables(conn *sql.DB) error {
	_, err := conn.Exec(DropAllTablesSQL)
	return err
}
