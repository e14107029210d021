package vm

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/funvibe/logex/internal/value"
)

// Bytecode file layout (little-endian):
//
//	header      magic u32, version u32, const_count u32, code_size u32,
//	            entry_point u32, flags u32, source [256]byte
//	constants   tag u8, len u32, bytes; Numbers add decimal_pos i32, negative u8
//	code        opcode u8, operand u64
//	debug info  len u32, canonical CBOR {lines, columns} (FlagDebugInfo only)
const (
	Magic          uint32 = 0x4C534758 // "LSGX"
	Version        uint32 = 2
	SourceNameSize        = 256
)

var ErrBadBytecode = errors.New("bad bytecode")

type fileHeader struct {
	Magic      uint32
	Version    uint32
	ConstCount uint32
	CodeSize   uint32
	EntryPoint uint32
	Flags      uint32
	Source     [SourceNameSize]byte
}

type debugInfo struct {
	Lines   []int `cbor:"lines"`
	Columns []int `cbor:"columns"`
}

// Minimum encoded sizes, used to reject counts the input cannot hold.
const (
	minConstantSize    = 5
	instructionSize    = 9
	knownFlags         = FlagDebugInfo
	maxDebugInfoLength = 64 << 20
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Save writes p in the bytecode file format. Source names longer than 255
// bytes are cut.
func (p *Program) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)

	hdr := fileHeader{
		Magic:      Magic,
		Version:    Version,
		ConstCount: uint32(len(p.Constants)),
		CodeSize:   uint32(len(p.Code)),
		EntryPoint: p.EntryPoint,
		Flags:      p.Flags,
	}
	copy(hdr.Source[:SourceNameSize-1], p.Source)
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, c := range p.Constants {
		if err := writeConstant(bw, c); err != nil {
			return fmt.Errorf("writing constant %d: %w", i, err)
		}
	}

	var rec [instructionSize]byte
	for _, ins := range p.Code {
		rec[0] = byte(ins.Op)
		binary.LittleEndian.PutUint64(rec[1:], ins.Operand)
		if _, err := bw.Write(rec[:]); err != nil {
			return fmt.Errorf("writing code: %w", err)
		}
	}

	if p.Flags&FlagDebugInfo != 0 {
		if len(p.Lines) != len(p.Code) || len(p.Columns) != len(p.Code) {
			return fmt.Errorf("debug info covers %d/%d of %d instructions", len(p.Lines), len(p.Columns), len(p.Code))
		}
		data, err := cborEncMode.Marshal(debugInfo{Lines: p.Lines, Columns: p.Columns})
		if err != nil {
			return fmt.Errorf("encoding debug info: %w", err)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(data))); err != nil {
			return fmt.Errorf("writing debug info: %w", err)
		}
		if _, err := bw.Write(data); err != nil {
			return fmt.Errorf("writing debug info: %w", err)
		}
	}
	return bw.Flush()
}

func writeConstant(w io.Writer, c Constant) error {
	var payload []byte
	switch c.Tag {
	case ConstNumber:
		payload = []byte(c.Value.Digits())
	case ConstString:
		payload = []byte(c.Value.Text())
	case ConstIdent:
		payload = []byte(c.Name)
	case ConstBitmap:
		payload = []byte(strings.TrimPrefix(c.Value.Format(0), "B"))
	default:
		return fmt.Errorf("unknown constant tag %d", c.Tag)
	}

	var head [minConstantSize]byte
	head[0] = byte(c.Tag)
	binary.LittleEndian.PutUint32(head[1:], uint32(len(payload)))
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if c.Tag != ConstNumber {
		return nil
	}
	var tail [5]byte
	binary.LittleEndian.PutUint32(tail[:4], uint32(int32(c.Value.DecimalPos())))
	if c.Value.Negative() {
		tail[4] = 1
	}
	_, err := w.Write(tail[:])
	return err
}

// Bytes returns the encoded program.
func (p *Program) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads a program written by Save.
func Load(r io.Reader, limits value.Limits) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bytecode: %w", err)
	}
	return Decode(data, limits)
}

// Decode parses an encoded program, validating the header, every count and
// every constant tag. Number constants are held to limits.MaxDigits.
func Decode(data []byte, limits value.Limits) (*Program, error) {
	rd := &reader{data: data, limits: limits}

	var hdr fileHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: file too short for header", ErrBadBytecode)
	}
	rd.off = binary.Size(hdr)

	if hdr.Magic != Magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08X", ErrBadBytecode, hdr.Magic)
	}
	if hdr.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadBytecode, hdr.Version)
	}
	if hdr.Flags&^knownFlags != 0 {
		return nil, fmt.Errorf("%w: unknown flags 0x%X", ErrBadBytecode, hdr.Flags)
	}
	if uint64(hdr.ConstCount)*minConstantSize > uint64(rd.remaining()) {
		return nil, fmt.Errorf("%w: file too short for %d constants", ErrBadBytecode, hdr.ConstCount)
	}

	p := &Program{
		Constants:  make([]Constant, 0, hdr.ConstCount),
		Source:     string(bytes.TrimRight(hdr.Source[:], "\x00")),
		EntryPoint: hdr.EntryPoint,
		Flags:      hdr.Flags,
	}

	for i := uint32(0); i < hdr.ConstCount; i++ {
		c, err := rd.constant()
		if err != nil {
			return nil, fmt.Errorf("%w: constant %d: %w", ErrBadBytecode, i, err)
		}
		p.Constants = append(p.Constants, c)
	}

	if uint64(hdr.CodeSize)*instructionSize > uint64(rd.remaining()) {
		return nil, fmt.Errorf("%w: file too short for %d instructions", ErrBadBytecode, hdr.CodeSize)
	}
	p.Code = make([]Instruction, hdr.CodeSize)
	for i := range p.Code {
		rec := rd.take(instructionSize)
		p.Code[i] = Instruction{Op: Opcode(rec[0]), Operand: binary.LittleEndian.Uint64(rec[1:])}
	}
	if hdr.CodeSize > 0 && hdr.EntryPoint >= hdr.CodeSize {
		return nil, fmt.Errorf("%w: entry point %d outside %d instructions", ErrBadBytecode, hdr.EntryPoint, hdr.CodeSize)
	}

	if p.Flags&FlagDebugInfo != 0 {
		n, err := rd.u32()
		if err != nil {
			return nil, fmt.Errorf("%w: debug info: %w", ErrBadBytecode, err)
		}
		if n > maxDebugInfoLength || int(n) > rd.remaining() {
			return nil, fmt.Errorf("%w: file too short for %d bytes of debug info", ErrBadBytecode, n)
		}
		var info debugInfo
		if err := cbor.Unmarshal(rd.take(int(n)), &info); err != nil {
			return nil, fmt.Errorf("%w: debug info: %w", ErrBadBytecode, err)
		}
		if len(info.Lines) != len(p.Code) || len(info.Columns) != len(p.Code) {
			return nil, fmt.Errorf("%w: debug info does not match %d instructions", ErrBadBytecode, len(p.Code))
		}
		p.Lines, p.Columns = info.Lines, info.Columns
	}

	if rd.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrBadBytecode, rd.remaining())
	}
	return p, nil
}

// SaveFile writes p to path.
func (p *Program) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return f.Close()
}

// LoadFile reads a program from path.
func LoadFile(path string, limits value.Limits) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Decode(data, limits)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return p, nil
}

// reader walks an encoded program. Callers check remaining() before take().
type reader struct {
	data   []byte
	off    int
	limits value.Limits
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) take(n int) []byte {
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	return binary.LittleEndian.Uint32(r.take(4)), nil
}

func (r *reader) constant() (Constant, error) {
	if r.remaining() < minConstantSize {
		return Constant{}, io.ErrUnexpectedEOF
	}
	tag := ConstTag(r.take(1)[0])
	n, _ := r.u32()
	if int64(n) > int64(r.remaining()) {
		return Constant{}, fmt.Errorf("length %d: %w", n, io.ErrUnexpectedEOF)
	}
	payload := string(r.take(int(n)))

	switch tag {
	case ConstString:
		return Constant{Tag: tag, Value: value.NewString(payload)}, nil
	case ConstIdent:
		if payload == "" {
			return Constant{}, errors.New("empty identifier")
		}
		return Constant{Tag: tag, Name: payload}, nil
	case ConstBitmap:
		v, err := value.ParseBitmap(payload)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Tag: tag, Value: v}, nil
	case ConstNumber:
		if r.remaining() < 5 {
			return Constant{}, io.ErrUnexpectedEOF
		}
		dp, _ := r.u32()
		negative := r.take(1)[0] != 0
		v, err := r.limits.FromDigits(payload, int(int32(dp)), negative)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Tag: tag, Value: v}, nil
	}
	return Constant{}, fmt.Errorf("unknown tag %d", tag)
}
