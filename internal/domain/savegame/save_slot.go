package savegame

import (
	"regexp"
	"time"
)

var slotNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1,64}$`)

// SaveSlot 保存データ1件
type SaveSlot struct {
	name    string
	data    []byte
	savedAt time.Time
}

// NewSaveSlot 新しいSaveSlotを作成
func NewSaveSlot(name string, data []byte, savedAt time.Time) (*SaveSlot, error) {
	if !slotNameRegex.MatchString(name) {
		return nil, ErrInvalidSlotName
	}
	return &SaveSlot{
		name:    name,
		data:    data,
		savedAt: savedAt,
	}, nil
}

// Name スロット名を返す
func (s *SaveSlot) Name() string {
	return s.name
}

// Data 保存データを返す
func (s *SaveSlot) Data() []byte {
	return s.data
}

// SavedAt 保存時刻を返す
func (s *SaveSlot) SavedAt() time.Time {
	return s.savedAt
}

// Size 保存データのバイト数を返す
func (s *SaveSlot) Size() int {
	return len(s.data)
}

// MustNewSaveSlot テスト用ヘルパー: NewSaveSlotを呼び出し、エラーが発生した場合はpanicする
func MustNewSaveSlot(name string, data []byte, savedAt time.Time) *SaveSlot {
	s, err := NewSaveSlot(name, data, savedAt)
	if err != nil {
		panic(err)
	}
	return s
}

// SlotInfo 一覧表示用のスロット情報
type SlotInfo struct {
	Name    string
	Size    int
	SavedAt time.Time
}
