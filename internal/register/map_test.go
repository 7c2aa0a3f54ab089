package register

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type recordingWriteBack struct {
	calls []uint32
	err   error
}

func (r *recordingWriteBack) WriteRegister(_ context.Context, address, value uint32) error {
	r.calls = append(r.calls, address, value)
	return r.err
}

func TestApplyBitfieldExhaustive(t *testing.T) {
	for bit := uint(0); bit < 8; bit++ {
		for size := uint(1); bit+size <= 8; size++ {
			mask := uint32(((1 << size) - 1) << bit)
			for old := uint32(0); old < 256; old++ {
				for v := uint32(0); v < 256; v += 7 {
					want := (old &^ mask) | ((v << bit) & mask)
					if got := ApplyBitfield(old, bit, size, v); got != want {
						t.Fatalf("ApplyBitfield(0x%02X, %d, %d, 0x%02X) = 0x%02X, want 0x%02X",
							old, bit, size, v, got, want)
					}
				}
			}
		}
	}
}

func TestWriteBitfield(t *testing.T) {
	tests := []struct {
		name      string
		address   uint32
		field     string
		value     uint32
		wantValue uint32
		wantCalls []uint32
		wantErr   error
	}{
		{
			name:      "enable bit",
			address:   0x01,
			field:     "ENABLE",
			value:     1,
			wantValue: 0x01,
			wantCalls: []uint32{0x01, 0x01},
		},
		{
			name:      "mode truncates overflow",
			address:   0x01,
			field:     "MODE",
			value:     0x7,
			wantValue: 0x06,
			wantCalls: []uint32{0x01, 0x06},
		},
		{
			name:      "read-only register skips write-back",
			address:   0x02,
			field:     "BUSY",
			value:     1,
			wantValue: 0xC0,
		},
		{
			name:    "unknown register",
			address: 0x7F,
			field:   "ENABLE",
			wantErr: ErrRegisterNotFound,
		},
		{
			name:    "unknown field",
			address: 0x01,
			field:   "NOPE",
			wantErr: ErrFieldNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewDefault()
			wb := &recordingWriteBack{}
			m.SetWriteBack(wb)

			got, err := m.WriteBitfield(context.Background(), tt.address, tt.field, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("WriteBitfield() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if got != tt.wantValue {
				t.Errorf("WriteBitfield() = 0x%02X, want 0x%02X", got, tt.wantValue)
			}
			reg, _ := m.Get(tt.address)
			if reg.Value != tt.wantValue {
				t.Errorf("stored value = 0x%02X, want 0x%02X", reg.Value, tt.wantValue)
			}
			if diff := cmp.Diff(tt.wantCalls, wb.calls); diff != "" {
				t.Errorf("write-back calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteBitfieldWriteBackFailureKeepsModel(t *testing.T) {
	m := NewDefault()
	m.SetWriteBack(&recordingWriteBack{err: errors.New("link down")})

	_, err := m.WriteBitfield(context.Background(), 0x01, "IRQ_EN", 1)
	var wbErr *WriteBackError
	if !errors.As(err, &wbErr) {
		t.Fatalf("WriteBitfield() error = %v, want *WriteBackError", err)
	}
	if reg, _ := m.Get(0x01); reg.Value != 0x08 {
		t.Errorf("value = 0x%02X, want 0x08", reg.Value)
	}
}

func TestOverlappingFieldsLastWriteWins(t *testing.T) {
	m := New([]Register{{
		Address: 0x10,
		Fields: []Field{
			{Name: "LOW", Bit: 0, Size: 4},
			{Name: "MID", Bit: 2, Size: 4},
		},
	}})

	ctx := context.Background()
	if _, err := m.WriteBitfield(ctx, 0x10, "LOW", 0xF); err != nil {
		t.Fatal(err)
	}
	got, err := m.WriteBitfield(ctx, 0x10, "MID", 0x0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x03 {
		t.Errorf("value = 0x%02X, want 0x03", got)
	}
}

func TestSetValueMasksToWidth(t *testing.T) {
	m := New([]Register{
		{Address: 1},
		{Address: 2, Width: 16},
	})
	var seen []uint32
	m.OnChange(func(r Register) { seen = append(seen, r.Value) })

	m.SetValue(1, 0x1234)
	m.SetValue(2, 0x123456)
	if ok := m.SetValue(3, 1); ok {
		t.Error("SetValue() on missing register = true, want false")
	}

	if diff := cmp.Diff([]uint32{0x34, 0x3456}, seen); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadNumericFallbacks(t *testing.T) {
	source := map[string]interface{}{
		"registers": []interface{}{
			map[string]interface{}{
				"address":  "0x1A",
				"name":     "A",
				"value":    "200",
				"readOnly": "true",
				"fields": []interface{}{
					map[string]interface{}{"name": "F", "bit": "0x2", "size": "garbage"},
				},
			},
			map[string]interface{}{
				"address": 5,
				"value":   "0xZZ",
				"width":   16,
			},
			map[string]interface{}{
				"address": -1,
			},
		},
	}

	m, err := Load(source)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []Register{
		{Address: 0, Width: 8},
		{Address: 5, Width: 16},
		{
			Address:  0x1A,
			Name:     "A",
			Value:    200,
			ReadOnly: true,
			Width:    8,
			Fields:   []Field{{Name: "F", Bit: 2, Size: 1}},
		},
	}
	if diff := cmp.Diff(want, m.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name   string
		source interface{}
	}{
		{name: "scalar root", source: "registers"},
		{name: "registers not a list", source: map[string]interface{}{"registers": 3}},
		{name: "entry not a mapping", source: map[string]interface{}{"registers": []interface{}{1}}},
		{
			name: "fields not a list",
			source: map[string]interface{}{"registers": []interface{}{
				map[string]interface{}{"address": 1, "fields": "x"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.source)
			var perr *MapParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Load() error = %v, want *MapParseError", err)
			}
		})
	}
}

func TestImportKeepsMapOnFailure(t *testing.T) {
	m := NewDefault()
	if err := m.Import("bad"); err == nil {
		t.Fatal("Import() error = nil, want error")
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	regs := append(Defaults(), Register{
		Address:     0x40,
		Name:        "WIDE",
		Description: "32-bit counter",
		Value:       0xDEADBEEF,
		Width:       32,
		Fields:      []Field{{Name: "HI", Bit: 16, Size: 16, Description: "upper half"}},
	})
	m := New(regs)

	got := New(nil)
	if err := got.Import(m.Export()); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if diff := cmp.Diff(m.List(), got.List(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLFileRoundTrip(t *testing.T) {
	m := NewDefault()
	m.SetValue(0x03, 0x5A)

	path := filepath.Join(t.TempDir(), UserMapFilename)
	if err := m.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if diff := cmp.Diff(m.List(), got.List(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode(t *testing.T) {
	doc := `
registers:
  - address: 0x20
    name: GAIN
    value: 0x0F
    readOnly: false
    fields:
      - name: STEP
        bit: 0
        size: 4
`
	m, err := Decode(bytes.NewBufferString(doc))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	reg, ok := m.Get(0x20)
	if !ok {
		t.Fatal("register 0x20 missing")
	}
	if reg.Value != 0x0F || reg.Name != "GAIN" || len(reg.Fields) != 1 {
		t.Errorf("Get(0x20) = %+v", reg)
	}

	empty, err := Decode(bytes.NewBufferString(""))
	if err != nil || empty.Len() != 0 {
		t.Errorf("Decode(empty) = %d registers, %v", empty.Len(), err)
	}

	if _, err := Decode(bytes.NewBufferString("registers: [")); err == nil {
		t.Error("Decode(invalid) error = nil")
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile() error = %v, want os.ErrNotExist", err)
	}
}
