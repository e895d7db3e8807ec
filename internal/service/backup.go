package service

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/habittrack/internal/db"
	"github.com/spf13/cast"
)

const (
	// BackupVersion 是 JSON 备份文档的格式版本。
	BackupVersion = "1.0"
	// dateFormat 用于导出日期戳与下载文件名。
	dateFormat = "2006-01-02"
	// utf8BOM 使导出的 CSV 可被电子表格软件按 UTF-8 识别。
	utf8BOM = "\uFEFF"
)

// csvHeader 列顺序固定：날짜,사용자,습관명,아이콘,포인트,완료횟수
var csvHeader = []string{"날짜", "사용자", "습관명", "아이콘", "포인트", "완료횟수"}

// ErrInvalidBackup 在备份文档缺少必需字段时返回
var ErrInvalidBackup = errors.New("invalid backup document")

// Backup 是 JSON 备份的信封结构，包含完整数据文档与口令。
// 该格式保留习惯 ID，是无损的权威备份格式。
type Backup struct {
	ExportDate string             `json:"exportDate"`
	Version    string             `json:"version"`
	HabitData  map[string][]Habit `json:"habitData"`
	Password   string             `json:"password"`
}

// BackupSummary 描述一份待恢复备份的概要，用于恢复前的确认环节。
type BackupSummary struct {
	ExportDate  string `json:"exportDate"`
	Version     string `json:"version"`
	UserCount   int    `json:"userCount"`
	HabitCount  int    `json:"habitCount"`
	HasPassword bool   `json:"hasPassword"`
}

// BackupService 负责 CSV/JSON 两种格式的导入导出。
// CSV 以 (用户, 习惯名) 为身份做逐行 upsert；JSON 恢复则整体替换数据文档。
type BackupService struct {
	store *HabitStore
	gate  *PasswordGate
	kv    db.KV
}

// NewBackupService 构造 BackupService。
func NewBackupService(store *HabitStore, gate *PasswordGate, kv db.KV) *BackupService {
	return &BackupService{store: store, gate: gate, kv: kv}
}

// ExportCSV 导出所有用户的习惯数据。
// 日期列为导出时间戳而非逐次完成历史；行顺序为用户声明顺序加习惯顺序。
func (s *BackupService) ExportCSV() (string, error) {
	store, _, err := s.store.load()
	if err != nil {
		return "", err
	}

	currentDate := time.Now().Format(dateFormat)

	var builder strings.Builder
	builder.WriteString(utf8BOM)

	writer := csv.NewWriter(&builder)
	if err := writer.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	for _, user := range Users {
		for _, habit := range store[user.ID] {
			icon := habit.Icon
			if icon == "" {
				icon = DefaultIcon
			}
			record := []string{
				currentDate,
				user.Name,
				habit.Title,
				icon,
				strconv.Itoa(habit.Points),
				strconv.Itoa(habit.Count),
			}
			if err := writer.Write(record); err != nil {
				return "", fmt.Errorf("write csv record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	return builder.String(), nil
}

// ImportCSV 逐行解析并按 (用户, 习惯名) upsert，处理完全部行后一次性持久化。
// 短行、未知用户、포인트 无法解析的行会被静默跳过，单行错误不会中止整体导入。
func (s *BackupService) ImportCSV(text string) error {
	store, _, err := s.store.load()
	if err != nil {
		return err
	}

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}

		if first {
			first = false
			continue
		}

		if len(record) < 6 {
			continue
		}

		user, ok := FindUserByName(strings.TrimSpace(record[1]))
		if !ok {
			continue
		}

		title := strings.TrimSpace(record[2])
		icon := strings.TrimSpace(record[3])

		points, err := strconv.Atoi(strings.TrimSpace(record[4]))
		if err != nil {
			continue
		}
		count := cast.ToInt(strings.TrimSpace(record[5]))
		if count < 0 {
			count = 0
		}

		habits := store[user.ID]
		matched := false
		for i := range habits {
			if habits[i].Title == title {
				habits[i].Icon = icon
				habits[i].Points = points
				habits[i].Count = count
				matched = true
				break
			}
		}
		if !matched {
			habits = append(habits, Habit{
				ID:     newHabitID(),
				Title:  title,
				Desc:   HabitDesc(points),
				Icon:   icon,
				Points: points,
				Count:  count,
			})
		}
		store[user.ID] = habits
	}

	return s.store.save(store)
}

// ExportJSON 生成完整备份文档：数据文档、口令、导出日期与版本号。
func (s *BackupService) ExportJSON() (string, error) {
	store, _, err := s.store.load()
	if err != nil {
		return "", err
	}

	password, err := s.gate.Current()
	if err != nil {
		return "", err
	}

	backup := Backup{
		ExportDate: time.Now().Format(dateFormat),
		Version:    BackupVersion,
		HabitData:  store,
		Password:   password,
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	return string(data), nil
}

// backupEnvelope 用于先校验 habitData 字段是否存在再做类型化解析。
type backupEnvelope struct {
	ExportDate string          `json:"exportDate"`
	Version    string          `json:"version"`
	HabitData  json.RawMessage `json:"habitData"`
	Password   string          `json:"password"`
}

func parseBackup(text string) (Backup, error) {
	var envelope backupEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return Backup{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	if len(envelope.HabitData) == 0 || string(envelope.HabitData) == "null" {
		return Backup{}, fmt.Errorf("%w: habitData is required", ErrInvalidBackup)
	}

	var habitData map[string][]Habit
	if err := json.Unmarshal(envelope.HabitData, &habitData); err != nil {
		return Backup{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	return Backup{
		ExportDate: envelope.ExportDate,
		Version:    envelope.Version,
		HabitData:  habitData,
		Password:   envelope.Password,
	}, nil
}

// InspectBackup 校验备份文档并返回概要，不产生任何改动。
// 恢复是破坏性的整体覆盖，调用方应先展示概要并获得确认。
func (s *BackupService) InspectBackup(text string) (BackupSummary, error) {
	backup, err := parseBackup(text)
	if err != nil {
		return BackupSummary{}, err
	}

	habitCount := 0
	for _, habits := range backup.HabitData {
		habitCount += len(habits)
	}

	return BackupSummary{
		ExportDate:  backup.ExportDate,
		Version:     backup.Version,
		UserCount:   len(backup.HabitData),
		HabitCount:  habitCount,
		HasPassword: backup.Password != "",
	}, nil
}

// RestoreBackup 整体替换数据文档，备份携带口令时一并覆盖。
func (s *BackupService) RestoreBackup(text string) error {
	backup, err := parseBackup(text)
	if err != nil {
		return err
	}

	data, err := json.Marshal(backup.HabitData)
	if err != nil {
		return fmt.Errorf("encode habit store: %w", err)
	}
	if err := s.kv.Set(db.KeyHabitData, string(data)); err != nil {
		return fmt.Errorf("restore habit store: %w", err)
	}

	if backup.Password != "" {
		if err := s.kv.Set(db.KeyParentPassword, backup.Password); err != nil {
			return fmt.Errorf("restore password: %w", err)
		}
	}

	return nil
}

// CSVFileName 返回导出 CSV 的下载文件名。
func (s *BackupService) CSVFileName() string {
	return fmt.Sprintf("습관트래커_%s.csv", time.Now().Format(dateFormat))
}

// JSONFileName 返回导出 JSON 备份的下载文件名。
func (s *BackupService) JSONFileName() string {
	return fmt.Sprintf("습관트래커_백업_%s.json", time.Now().Format(dateFormat))
}
