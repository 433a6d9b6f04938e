package domain

import (
	"encoding/json"
	"strconv"

	"github.com/darkwallet/pockets/pkg/wallet"
)

// PocketID identifies a pocket within its kind. HD pockets use the decimal
// index of their slot, multisig pockets the fund address and read-only pockets
// their label.
type PocketID string

// HDPocketID returns the id of the HD pocket stored at the given slot.
func HDPocketID(index int) PocketID {
	return PocketID(strconv.Itoa(index))
}

// HDIndex returns the slot index encoded in an HD pocket id. Only the
// canonical form returned by HDPocketID is accepted, so "01" or "+1" are
// invalid.
func (id PocketID) HDIndex() (int, error) {
	index, err := strconv.Atoi(string(id))
	if err != nil || index < 0 || HDPocketID(index) != id {
		return -1, ErrInvalidPocketID
	}
	return index, nil
}

func (id PocketID) String() string {
	return string(id)
}

// PocketRecord is the persisted unit of an HD pocket.
type PocketRecord struct {
	Name string `json:"name"`
}

// PocketSlot is an optional PocketRecord. An empty slot is the tombstone of a
// deleted pocket and is encoded as JSON null.
type PocketSlot struct {
	record *PocketRecord
}

// SlotOf returns a live slot holding a copy of the given record.
func SlotOf(record PocketRecord) PocketSlot {
	return PocketSlot{&record}
}

// Record returns the record held by the slot, if any.
func (s PocketSlot) Record() (PocketRecord, bool) {
	if s.record == nil {
		return PocketRecord{}, false
	}
	return *s.record, true
}

// IsTombstone returns whether the slot belongs to a deleted pocket.
func (s PocketSlot) IsTombstone() bool {
	return s.record == nil
}

func (s PocketSlot) MarshalJSON() ([]byte, error) {
	if s.record == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.record)
}

func (s *PocketSlot) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		s.record = nil
		return nil
	}
	var record PocketRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	s.record = &record
	return nil
}

// PocketSlots is the ordered sequence of HD pocket records. The position of a
// slot is the index of its pocket and never changes: deletions leave a
// tombstone in place and the sequence is never compacted.
type PocketSlots []PocketSlot

// NewPocketSlots returns a sequence of live slots with the given names.
func NewPocketSlots(names ...string) PocketSlots {
	slots := make(PocketSlots, 0, len(names))
	for _, name := range names {
		slots = append(slots, SlotOf(PocketRecord{Name: name}))
	}
	return slots
}

// Append adds a live slot at the end of the sequence and returns its index.
func (s *PocketSlots) Append(record PocketRecord) int {
	*s = append(*s, SlotOf(record))
	return len(*s) - 1
}

// Get returns the record at the given index, if the slot exists and is live.
func (s PocketSlots) Get(index int) (PocketRecord, bool) {
	if index < 0 || index >= len(s) {
		return PocketRecord{}, false
	}
	return s[index].Record()
}

// Set replaces the record of a live slot.
func (s PocketSlots) Set(index int, record PocketRecord) error {
	if _, ok := s.Get(index); !ok {
		return ErrTombstonedSlot
	}
	s[index] = SlotOf(record)
	return nil
}

// Tombstone empties the slot at the given index.
func (s PocketSlots) Tombstone(index int) {
	if index < 0 || index >= len(s) {
		return
	}
	s[index] = PocketSlot{}
}

// IndexOfName returns the index of the first live slot with the given name,
// or -1. Names are matched exactly.
func (s PocketSlots) IndexOfName(name string) int {
	for i, slot := range s {
		if record, ok := slot.Record(); ok && record.Name == name {
			return i
		}
	}
	return -1
}

// Live calls fn for every live slot, in order.
func (s PocketSlots) Live(fn func(index int, record PocketRecord)) {
	for i, slot := range s {
		if record, ok := slot.Record(); ok {
			fn(i, record)
		}
	}
}

// Clone returns a deep copy of the sequence.
func (s PocketSlots) Clone() PocketSlots {
	if s == nil {
		return nil
	}
	clone := make(PocketSlots, len(s))
	for i, slot := range s {
		if record, ok := slot.Record(); ok {
			clone[i] = SlotOf(record)
		}
	}
	return clone
}

// Address is a wallet address along with the data needed to assign it to a
// pocket.
type Address struct {
	Address string
	Type    AddressType
	// Path is the derivation path of HD addresses.
	Path wallet.DerivationPath
	// Pocket references the owning pocket of non HD addresses, ie. the fund
	// address for multisig or the label of a read-only pocket.
	Pocket string
	Label  string
}

// MultisigFund describes a multi-signature fund known to the wallet.
type MultisigFund struct {
	Address string
	Name    string
	M       int
	PubKeys []string
}

// PocketField is an attribute pockets can be searched by.
type PocketField string

const (
	PocketFieldName PocketField = "name"
	PocketFieldID   PocketField = "id"
)

// SearchQuery is a single-field equality predicate. Exactly one field per
// query is supported.
type SearchQuery struct {
	Field PocketField
	Value string
}

// ByName returns a query matching pockets with the given name.
func ByName(name string) SearchQuery {
	return SearchQuery{PocketFieldName, name}
}

// ByID returns a query matching the pocket with the given id.
func ByID(id PocketID) SearchQuery {
	return SearchQuery{PocketFieldID, id.String()}
}
