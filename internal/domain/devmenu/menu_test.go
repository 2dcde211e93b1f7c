package devmenu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, args map[string]string) (*Result, error) {
	return &Result{Message: "ok"}, nil
}

func opt(key string) Option {
	return Option{Key: key, Label: key, Action: noop}
}

func builderOf(keys ...string) Builder {
	return func() (*Menu, error) {
		opts := make([]Option, 0, len(keys))
		for _, k := range keys {
			opts = append(opts, opt(k))
		}
		return NewMenu("Debug", opts...)
	}
}

func keysOf(m *Menu) []string {
	keys := make([]string, 0, m.Len())
	for _, o := range m.Options() {
		keys = append(keys, o.Key)
	}
	return keys
}

func TestOption_Validate(t *testing.T) {
	tests := []struct {
		name    string
		option  Option
		wantErr bool
	}{
		{name: "正常系: 有効な項目", option: opt("warp"), wantErr: false},
		{name: "異常系: キーが空", option: Option{Label: "x", Action: noop}, wantErr: true},
		{name: "異常系: キーに空白", option: Option{Key: "a b", Label: "x", Action: noop}, wantErr: true},
		{name: "異常系: ラベルが空", option: Option{Key: "a", Label: " ", Action: noop}, wantErr: true},
		{name: "異常系: 処理がない", option: Option{Key: "a", Label: "a"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.option.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOption)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMenu_Insert(t *testing.T) {
	m, err := NewMenu("Debug", opt("a"), opt("b"), opt("c"))
	require.NoError(t, err)

	require.NoError(t, m.Insert(1, opt("x")))
	assert.Equal(t, []string{"a", "x", "b", "c"}, keysOf(m))

	require.NoError(t, m.Insert(99, opt("y")))
	assert.Equal(t, []string{"a", "x", "b", "c", "y"}, keysOf(m))

	assert.ErrorIs(t, m.Insert(0, opt("a")), ErrDuplicateOption)
}

func TestMenu_Exec(t *testing.T) {
	m, err := NewMenu("Debug", opt("a"))
	require.NoError(t, err)

	res, err := m.Exec(context.Background(), "A", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Message)

	_, err = m.Exec(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrOptionNotFound)
}

func TestExtensionPoint_Build(t *testing.T) {
	tests := []struct {
		name          string
		base          []string
		contributions []Contribution
		want          []string
	}{
		{
			name:          "正常系: 2件目の直後に挿入",
			base:          []string{"a", "b", "c", "d"},
			contributions: []Contribution{{Option: opt("x"), Position: AfterEntry(2)}},
			want:          []string{"a", "b", "x", "c", "d"},
		},
		{
			name:          "正常系: 既存がちょうど2件なら末尾",
			base:          []string{"a", "b"},
			contributions: []Contribution{{Option: opt("x"), Position: AfterEntry(2)}},
			want:          []string{"a", "b", "x"},
		},
		{
			name:          "正常系: 既存が2件未満なら末尾",
			base:          []string{"a"},
			contributions: []Contribution{{Option: opt("x"), Position: AfterEntry(2)}},
			want:          []string{"a", "x"},
		},
		{
			name:          "正常系: 既存が空",
			base:          nil,
			contributions: []Contribution{{Option: opt("x"), Position: AfterEntry(2)}},
			want:          []string{"x"},
		},
		{
			name: "正常系: 同じ位置の項目は登録順",
			base: []string{"a", "b", "c"},
			contributions: []Contribution{
				{Option: opt("x"), Position: AfterEntry(2)},
				{Option: opt("y"), Position: AfterEntry(2)},
				{Option: opt("z"), Position: Append},
				{Option: opt("w"), Position: AfterEntry(1)},
			},
			want: []string{"a", "w", "b", "x", "y", "c", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := NewExtensionPoint()
			for _, c := range tt.contributions {
				require.NoError(t, ep.Register(c))
			}

			m, err := ep.Build(builderOf(tt.base...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, keysOf(m))
		})
	}
}

func TestExtensionPoint_BuildDoesNotChangeBuilderOutput(t *testing.T) {
	ep := NewExtensionPoint()
	require.NoError(t, ep.Register(Contribution{Option: opt("x"), Position: AfterEntry(1)}))

	build := builderOf("a", "b")
	_, err := ep.Build(build)
	require.NoError(t, err)

	fresh, err := build()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keysOf(fresh))

	// 何度組み立てても1回だけ入る
	m, err := ep.Build(build)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "x", "b"}, keysOf(m))
}

func TestExtensionPoint_Register(t *testing.T) {
	ep := NewExtensionPoint()
	require.NoError(t, ep.Register(Contribution{Option: opt("x")}))
	assert.ErrorIs(t, ep.Register(Contribution{Option: opt("x")}), ErrDuplicateOption)
	assert.ErrorIs(t, ep.Register(Contribution{Option: Option{Key: "y"}}), ErrInvalidOption)
	assert.Len(t, ep.Contributions(), 1)
}

func TestExtensionPoint_BuildConflictWithHost(t *testing.T) {
	ep := NewExtensionPoint()
	require.NoError(t, ep.Register(Contribution{Option: opt("a"), Position: Append}))

	_, err := ep.Build(builderOf("a"))
	assert.ErrorIs(t, err, ErrDuplicateOption)

	_, err = ep.Build(func() (*Menu, error) { return nil, errors.New("host failed") })
	assert.Error(t, err)
}
