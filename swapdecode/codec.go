package swapdecode

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/mr-tron/base58"
)

// Discriminator is the 8-byte tag prefixing every instruction and event
// payload, selecting its decoding schema.
type Discriminator [8]byte

// EventSentinel marks an event emitted through the self-CPI convention: the
// instruction payload is the sentinel followed by an ordinary event encoding.
var EventSentinel = Discriminator{228, 69, 165, 46, 81, 203, 154, 29}

// ErrUnknownDiscriminator reports a payload whose tag is not in the schema.
// It means "not this schema", never a fatal failure: instruction streams
// legitimately interleave instructions this codec does not know.
var ErrUnknownDiscriminator = errors.New("unknown discriminator")

// InstructionDiscriminator derives the tag for an anchor instruction name
// (snake_case).
func InstructionDiscriminator(name string) Discriminator {
	sum := sha256.Sum256([]byte("global:" + name))
	return Discriminator(sum[:8])
}

// EventDiscriminator derives the tag for an anchor event name (PascalCase).
func EventDiscriminator(name string) Discriminator {
	sum := sha256.Sum256([]byte("event:" + name))
	return Discriminator(sum[:8])
}

type schemaEntry struct {
	name string
	make func() interface{}
}

// Schema is a pure, stateless description of the instruction and event shapes
// one program emits. It holds no connection, no transaction, no globals;
// callers pass it explicitly into every decode.
type Schema struct {
	instructions map[Discriminator]schemaEntry
	events       map[Discriminator]schemaEntry

	instructionsByName map[string]Discriminator
	eventsByName       map[string]Discriminator
}

func NewSchema() *Schema {
	return &Schema{
		instructions:       make(map[Discriminator]schemaEntry),
		events:             make(map[Discriminator]schemaEntry),
		instructionsByName: make(map[string]Discriminator),
		eventsByName:       make(map[string]Discriminator),
	}
}

// RegisterInstruction binds an anchor instruction name to a payload
// constructor. The constructor must return a pointer to a Borsh-decodable
// struct.
func (s *Schema) RegisterInstruction(name string, make func() interface{}) {
	d := InstructionDiscriminator(name)
	s.instructions[d] = schemaEntry{name: name, make: make}
	s.instructionsByName[name] = d
}

func (s *Schema) RegisterEvent(name string, make func() interface{}) {
	d := EventDiscriminator(name)
	s.events[d] = schemaEntry{name: name, make: make}
	s.eventsByName[name] = d
}

// DecodeInstruction decodes an instruction payload into its name and typed
// args. A payload too short to carry a tag, or carrying a tag outside the
// schema, yields ErrUnknownDiscriminator.
func (s *Schema) DecodeInstruction(data []byte) (string, interface{}, error) {
	if len(data) < 8 {
		return "", nil, ErrUnknownDiscriminator
	}
	entry, ok := s.instructions[Discriminator(data[:8])]
	if !ok {
		return "", nil, ErrUnknownDiscriminator
	}

	args := entry.make()
	if err := ag_binary.NewBorshDecoder(data[8:]).Decode(args); err != nil {
		return "", nil, fmt.Errorf("decoding %s args: %w", entry.name, err)
	}
	return entry.name, args, nil
}

// DecodeInstructionBase58 decodes an instruction payload delivered as a
// base58 string, the encoding JSON feeds use for raw instruction data.
func (s *Schema) DecodeInstructionBase58(data string) (string, interface{}, error) {
	raw, err := base58.Decode(data)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base58 payload: %w", err)
	}
	return s.DecodeInstruction(raw)
}

// EncodeInstruction is the inverse of DecodeInstruction. Production use is
// decode-only; encoding exists so synthetic payloads can exercise the codec
// bidirectionally.
func (s *Schema) EncodeInstruction(name string, args interface{}) ([]byte, error) {
	d, ok := s.instructionsByName[name]
	if !ok {
		return nil, fmt.Errorf("instruction %q not in schema", name)
	}
	var buf bytes.Buffer
	buf.Write(d[:])
	if err := ag_binary.NewBorshEncoder(&buf).Encode(args); err != nil {
		return nil, fmt.Errorf("encoding %s args: %w", name, err)
	}
	return buf.Bytes(), nil
}

// DecodeEvent decodes a self-CPI event payload: EventSentinel, event
// discriminator, Borsh fields.
func (s *Schema) DecodeEvent(data []byte) (string, interface{}, error) {
	if len(data) < 16 || !bytes.Equal(data[:8], EventSentinel[:]) {
		return "", nil, ErrUnknownDiscriminator
	}
	entry, ok := s.events[Discriminator(data[8:16])]
	if !ok {
		return "", nil, ErrUnknownDiscriminator
	}

	payload := entry.make()
	if err := ag_binary.NewBorshDecoder(data[16:]).Decode(payload); err != nil {
		return "", nil, fmt.Errorf("decoding %s: %w", entry.name, err)
	}
	return entry.name, payload, nil
}

func (s *Schema) EncodeEvent(name string, payload interface{}) ([]byte, error) {
	d, ok := s.eventsByName[name]
	if !ok {
		return nil, fmt.Errorf("event %q not in schema", name)
	}
	var buf bytes.Buffer
	buf.Write(EventSentinel[:])
	buf.Write(d[:])
	if err := ag_binary.NewBorshEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
