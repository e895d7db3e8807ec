package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/habittrack/internal/db"
)

// Habit 定义了习惯模型。
// Count 表示累计完成次数，总分始终由 Points*Count 推导，不单独存储。
type Habit struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Desc   string `json:"desc"`
	Points int    `json:"points"`
	Icon   string `json:"icon"`
	Count  int    `json:"count"`
}

// HabitInput 定义创建/更新习惯时可配置字段。
// ID 为空时视为新建；Count 不可由调用方指定。
type HabitInput struct {
	ID     string
	Title  string
	Points int
	Icon   string
}

// DefaultIcon 是未指定图标时的占位符。
const DefaultIcon = "⭐️"

// defaultHabits 是新用户首次访问时播种的固定习惯集合。
var defaultHabits = []Habit{
	{ID: "h1", Title: "치카치카 양치하기", Desc: "깨끗한 이를 위해 3분 동안!", Points: 5, Icon: "🦷", Count: 0},
	{ID: "h2", Title: "책 읽기", Desc: "재미있는 책 1권 읽기", Points: 5, Icon: "📚", Count: 0},
}

// HabitDesc 根据分值生成习惯描述文案。
func HabitDesc(points int) string {
	return fmt.Sprintf("%d점 획득!", points)
}

// HabitStore 是习惯数据文档的唯一持有者。
// 所有读写都以整文档为粒度经由注入的 KV 持久化完成。
type HabitStore struct {
	kv db.KV
}

// NewHabitStore 构造 HabitStore。
func NewHabitStore(kv db.KV) *HabitStore {
	return &HabitStore{kv: kv}
}

// rawHabit 用于宽松解析：count 字段缺失或非数值时按 0 修复。
type rawHabit struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Desc   string          `json:"desc"`
	Points int             `json:"points"`
	Icon   string          `json:"icon"`
	Count  json.RawMessage `json:"count"`
}

// load 读取并解析习惯数据文档。
// 文档整体无法解析时按空文档处理，repaired 标记各用户是否有 count 被修复。
func (s *HabitStore) load() (map[string][]Habit, map[string]bool, error) {
	value, ok, err := s.kv.Get(db.KeyHabitData)
	if err != nil {
		return nil, nil, err
	}

	store := make(map[string][]Habit)
	repaired := make(map[string]bool)
	if !ok || strings.TrimSpace(value) == "" {
		return store, repaired, nil
	}

	var raw map[string][]rawHabit
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return store, repaired, nil
	}

	for userID, habits := range raw {
		list := make([]Habit, 0, len(habits))
		for _, h := range habits {
			count, countOK := decodeCount(h.Count)
			if !countOK {
				repaired[userID] = true
			}
			list = append(list, Habit{
				ID:     h.ID,
				Title:  h.Title,
				Desc:   h.Desc,
				Points: h.Points,
				Icon:   h.Icon,
				Count:  count,
			})
		}
		store[userID] = list
	}

	return store, repaired, nil
}

func decodeCount(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// save 将整个文档写回持久化。
func (s *HabitStore) save(store map[string][]Habit) error {
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("encode habit store: %w", err)
	}
	if err := s.kv.Set(db.KeyHabitData, string(data)); err != nil {
		return fmt.Errorf("save habit store: %w", err)
	}
	return nil
}

// GetHabits 返回用户的习惯集合。
// 用户首次访问时播种默认习惯并立即持久化；count 修复后同样持久化。
func (s *HabitStore) GetHabits(userID string) ([]Habit, error) {
	store, repaired, err := s.load()
	if err != nil {
		return nil, err
	}

	if _, exists := store[userID]; !exists {
		seeded := make([]Habit, len(defaultHabits))
		copy(seeded, defaultHabits)
		store[userID] = seeded
		if err := s.save(store); err != nil {
			return nil, err
		}
		return seeded, nil
	}

	if repaired[userID] {
		if err := s.save(store); err != nil {
			return nil, err
		}
	}

	return store[userID], nil
}

// SaveHabit 按 ID 执行 upsert。
// 命中已有习惯时原位替换并保留其 Count；未命中或未提供 ID 时追加新习惯，Count 置 0。
func (s *HabitStore) SaveHabit(userID string, input HabitInput) (Habit, error) {
	store, _, err := s.load()
	if err != nil {
		return Habit{}, err
	}

	habit := Habit{
		ID:     input.ID,
		Title:  input.Title,
		Desc:   HabitDesc(input.Points),
		Points: input.Points,
		Icon:   input.Icon,
	}

	habits := store[userID]

	if habit.ID != "" {
		replaced := false
		for i := range habits {
			if habits[i].ID == habit.ID {
				habit.Count = habits[i].Count
				habits[i] = habit
				replaced = true
				break
			}
		}
		if !replaced {
			habit.Count = 0
			habits = append(habits, habit)
		}
	} else {
		habit.ID = newHabitID()
		habit.Count = 0
		habits = append(habits, habit)
	}

	store[userID] = habits
	if err := s.save(store); err != nil {
		return Habit{}, err
	}
	return habit, nil
}

// DeleteHabit 删除指定习惯。用户或习惯不存在时为无操作。
func (s *HabitStore) DeleteHabit(userID, habitID string) error {
	store, _, err := s.load()
	if err != nil {
		return err
	}

	habits, exists := store[userID]
	if !exists {
		return nil
	}

	filtered := habits[:0]
	for _, h := range habits {
		if h.ID != habitID {
			filtered = append(filtered, h)
		}
	}
	store[userID] = filtered

	return s.save(store)
}

// CompleteHabit 记录一次完成，Count 加 1。用户或习惯不存在时为无操作。
func (s *HabitStore) CompleteHabit(userID, habitID string) error {
	store, _, err := s.load()
	if err != nil {
		return err
	}

	habits, exists := store[userID]
	if !exists {
		return nil
	}

	for i := range habits {
		if habits[i].ID == habitID {
			habits[i].Count++
			return s.save(store)
		}
	}

	return nil
}

// GetTotalScore 返回用户总分，始终由 Points*Count 实时推导。
func (s *HabitStore) GetTotalScore(userID string) (int, error) {
	habits, err := s.GetHabits(userID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, h := range habits {
		total += h.Points * h.Count
	}
	return total, nil
}

// ResetUserScore 将指定用户所有习惯的 Count 归零，不影响其他用户。
func (s *HabitStore) ResetUserScore(userID string) error {
	store, _, err := s.load()
	if err != nil {
		return err
	}

	habits, exists := store[userID]
	if !exists {
		return nil
	}

	for i := range habits {
		habits[i].Count = 0
	}
	store[userID] = habits

	return s.save(store)
}

// newHabitID 生成时间戳加随机后缀的习惯 ID，避免同毫秒冲突。
func newHabitID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("h_%d_%s", time.Now().UnixMilli(), suffix)
}
