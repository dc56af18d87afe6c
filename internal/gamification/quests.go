package gamification

import (
	"math/rand/v2"

	"github.com/sandeepkv93/memoara/internal/model"
)

// DailyQuestCount is how many quests are drawn each day.
const DailyQuestCount = 4

// Rand is the source of randomness for quest draws and stat rolls.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Catalog is the set of quest templates daily quests are drawn from.
var Catalog = []model.Quest{
	{Title: "Push Up 10x", Description: "Complete 10 push-ups to build strength", Type: model.QuestExercise, ExpReward: 25, Icon: "💪"},
	{Title: "Sit Up 10x", Description: "Do 10 sit-ups for core strength", Type: model.QuestExercise, ExpReward: 25, Icon: "🏋️"},
	{Title: "Walk/Run 1km", Description: "Walk or run at least 1 kilometer", Type: model.QuestHealth, ExpReward: 30, Icon: "🏃"},
	{Title: "Drink 8 Glasses of Water", Description: "Stay hydrated throughout the day", Type: model.QuestHealth, ExpReward: 20, Icon: "💧"},
	{Title: "Read for 30 Minutes", Description: "Read a book or educational material", Type: model.QuestProductivity, ExpReward: 35, Icon: "📚"},
	{Title: "Meditate for 10 Minutes", Description: "Practice mindfulness and meditation", Type: model.QuestHealth, ExpReward: 30, Icon: "🧘"},
	{Title: "Complete 3 Tasks", Description: "Finish 3 important tasks from your to-do list", Type: model.QuestProductivity, ExpReward: 40, Icon: "✅"},
	{Title: "Stretch for 15 Minutes", Description: "Do stretching exercises for flexibility", Type: model.QuestExercise, ExpReward: 20, Icon: "🤸"},
}

// Draw shuffles the catalog and returns DailyQuestCount fresh quests with
// ids 1 through DailyQuestCount.
func Draw(rnd Rand) []model.Quest {
	pool := make([]model.Quest, len(Catalog))
	copy(pool, Catalog)
	for i := len(pool) - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	out := pool[:DailyQuestCount]
	for i := range out {
		out[i].ID = i + 1
		out[i].Completed = false
	}
	return out
}

// demoQuests is the fixed set shown to signed-out users.
func demoQuests() []model.Quest {
	out := make([]model.Quest, DailyQuestCount)
	copy(out, Catalog)
	for i := range out {
		out[i].ID = i + 1
	}
	return out
}

// Gain is the stat increase earned by one quest.
type Gain struct {
	Strength     int
	Agility      int
	Vitality     int
	Intelligence int
}

// RollGain rolls the stat gain for a quest of type t.
func RollGain(t model.QuestType, rnd Rand) Gain {
	switch t {
	case model.QuestExercise:
		return Gain{Strength: 1 + rnd.IntN(3), Vitality: 1 + rnd.IntN(2)}
	case model.QuestHealth:
		return Gain{Vitality: 1 + rnd.IntN(3), Agility: 1 + rnd.IntN(2)}
	case model.QuestProductivity:
		return Gain{Intelligence: 1 + rnd.IntN(3), Agility: 1 + rnd.IntN(2)}
	default:
		return Gain{}
	}
}

// Apply adds g and exp to p, levelling up as many times as exp allows. It
// returns the new stats and the number of levels gained.
func Apply(p model.PlayerStats, g Gain, exp int) (model.PlayerStats, int) {
	p.Strength += g.Strength
	p.Agility += g.Agility
	p.Vitality += g.Vitality
	p.Intelligence += g.Intelligence
	if p.Level < 1 {
		p.Level = 1
	}
	if p.ExpToNext <= 0 {
		p.ExpToNext = p.Level * 100
	}
	p.Exp += exp
	levels := 0
	for p.Exp >= p.ExpToNext {
		p.Exp -= p.ExpToNext
		p.Level++
		p.ExpToNext = p.Level * 100
		levels++
	}
	return p, levels
}
