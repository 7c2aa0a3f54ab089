// internal/register/register.go
package register

// DefaultWidth is the register width in bits when a map entry does not declare one
const DefaultWidth = 8

// Field is a named bit range inside a register
type Field struct {
	Name        string `json:"name"`
	Bit         uint   `json:"bit"`
	Size        uint   `json:"size"`
	Description string `json:"description"`
}

// Mask returns ((1 << size) - 1) << bit
func (f Field) Mask() uint64 {
	return ((uint64(1) << f.Size) - 1) << f.Bit
}

// Register is one addressable register of the IC
type Register struct {
	Address     uint32  `json:"address"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Value       uint32  `json:"value"`
	ReadOnly    bool    `json:"read_only"`
	Width       uint    `json:"width"`
	Fields      []Field `json:"fields"`
}

// Field looks up a field by name
func (r Register) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldValue extracts the current value of a field
func (r Register) FieldValue(f Field) uint32 {
	return uint32((uint64(r.Value) & f.Mask()) >> f.Bit)
}

func (r Register) clone() Register {
	c := r
	if r.Fields != nil {
		c.Fields = append([]Field(nil), r.Fields...)
	}
	return c
}

// widthMask returns the value mask for a register width, treating unknown widths as 8
func widthMask(width uint) uint32 {
	switch width {
	case 16:
		return 0xFFFF
	case 32:
		return 0xFFFFFFFF
	default:
		return 0xFF
	}
}

func normalizeWidth(width uint) uint {
	switch width {
	case 8, 16, 32:
		return width
	default:
		return DefaultWidth
	}
}

// ApplyBitfield computes the register value after writing v into the field at
// bit/size. Overflowing bits of v are dropped by the mask.
func ApplyBitfield(old uint32, bit, size uint, v uint32) uint32 {
	mask := Field{Bit: bit, Size: size}.Mask()
	return uint32((uint64(old) &^ mask) | ((uint64(v) << bit) & mask))
}

// Defaults returns the built-in register set used when no user map exists
func Defaults() []Register {
	return []Register{
		{
			Address:     0x01,
			Name:        "CONFIG_REG",
			Description: "Configuration register",
			Width:       8,
			Fields: []Field{
				{Name: "ENABLE", Bit: 0, Size: 1, Description: "Enable device"},
				{Name: "MODE", Bit: 1, Size: 2, Description: "Operating mode"},
				{Name: "IRQ_EN", Bit: 3, Size: 1, Description: "Interrupt enable"},
			},
		},
		{
			Address:     0x02,
			Name:        "STATUS_REG",
			Description: "Status register",
			Value:       0x80,
			ReadOnly:    true,
			Width:       8,
			Fields: []Field{
				{Name: "READY", Bit: 7, Size: 1, Description: "Device ready"},
				{Name: "BUSY", Bit: 6, Size: 1, Description: "Device busy"},
				{Name: "ERROR", Bit: 0, Size: 1, Description: "Error flag"},
			},
		},
		{
			Address:     0x03,
			Name:        "DATA_REG",
			Description: "Data register",
			Width:       8,
		},
	}
}
