package model

import (
	"errors"
	"fmt"
)

var ErrInvalidStats = errors.New("model: invalid player stats")

type QuestType string

const (
	QuestExercise     QuestType = "exercise"
	QuestHealth       QuestType = "health"
	QuestProductivity QuestType = "productivity"
)

type Quest struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        QuestType `json:"type"`
	ExpReward   int       `json:"expReward"`
	Completed   bool      `json:"completed"`
	Icon        string    `json:"icon"`
}

type PlayerStats struct {
	Level        int `json:"level"`
	Exp          int `json:"exp"`
	ExpToNext    int `json:"expToNext"`
	Strength     int `json:"strength"`
	Agility      int `json:"agility"`
	Vitality     int `json:"vitality"`
	Intelligence int `json:"intelligence"`
}

func DefaultPlayerStats() PlayerStats {
	return PlayerStats{
		Level:        1,
		ExpToNext:    100,
		Strength:     10,
		Agility:      10,
		Vitality:     10,
		Intelligence: 10,
	}
}

func (p PlayerStats) Validate() error {
	if p.Level < 1 {
		return fmt.Errorf("%w: level %d", ErrInvalidStats, p.Level)
	}
	if p.ExpToNext != p.Level*100 {
		return fmt.Errorf("%w: exp_to_next %d at level %d", ErrInvalidStats, p.ExpToNext, p.Level)
	}
	if p.Exp < 0 || p.Exp >= p.ExpToNext {
		return fmt.Errorf("%w: exp %d of %d", ErrInvalidStats, p.Exp, p.ExpToNext)
	}
	return nil
}

// Progress is the per-user gamification record: today's quests, the player
// stats and the day the quests were generated for.
type Progress struct {
	Quests []Quest     `json:"dailyQuests"`
	Stats  PlayerStats `json:"playerStats"`
	Date   string      `json:"lastQuestDate"`
}
