// Package pid holds the OBD-II parameter table: which mode and PID a named
// vehicle value is requested with, how many data bytes its reply carries and
// how those bytes turn into an engineering value.
package pid

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// DecodeFunc converts the data bytes of a reply into a value. It always
// receives exactly Descriptor.Bytes bytes.
type DecodeFunc func(data []byte) any

// Descriptor describes one requestable parameter.
type Descriptor struct {
	Mode        string     `json:"mode" yaml:"mode"`
	PID         string     `json:"pid,omitempty" yaml:"pid,omitempty"`
	Bytes       int        `json:"bytes" yaml:"bytes"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Min         float64    `json:"min" yaml:"min"`
	Max         float64    `json:"max" yaml:"max"`
	Unit        string     `json:"unit,omitempty" yaml:"unit,omitempty"`
	Decode      DecodeFunc `json:"-" yaml:"-"`
}

// Command returns the request body: the mode followed by the PID, or the
// mode alone for parameters that take no PID.
func (d Descriptor) Command() string {
	return d.Mode + d.PID
}

func (d Descriptor) String() string {
	return d.Name + " (" + d.Command() + ")"
}

var hexByte = regexp.MustCompile(`^[0-9A-Fa-f]{2}$`)

func (d Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("pid: descriptor %q has no name", d.Command())
	}
	if !hexByte.MatchString(d.Mode) {
		return fmt.Errorf("pid: %s: mode %q is not a hex byte", d.Name, d.Mode)
	}
	if d.PID != "" && !hexByte.MatchString(d.PID) {
		return fmt.Errorf("pid: %s: pid %q is not a hex byte", d.Name, d.PID)
	}
	if d.PID != "" {
		switch d.Bytes {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("pid: %s: byte count must be 1, 2, 4 or 8, got %d", d.Name, d.Bytes)
		}
	}
	if d.Bytes > 0 && d.Decode == nil {
		return fmt.Errorf("pid: %s: missing decode function", d.Name)
	}
	return nil
}

// Table is an immutable, ordered set of descriptors with unique names.
// Lookups preserve table order, so the first match wins.
type Table struct {
	descriptors []Descriptor
	byName      map[string]int
}

// NewTable validates the descriptors and builds a Table from them.
func NewTable(descriptors ...Descriptor) (*Table, error) {
	t := &Table{
		descriptors: make([]Descriptor, 0, len(descriptors)),
		byName:      make(map[string]int, len(descriptors)),
	}
	for _, d := range descriptors {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := t.byName[d.Name]; dup {
			return nil, fmt.Errorf("pid: duplicate name %q", d.Name)
		}
		d.Mode = strings.ToUpper(d.Mode)
		d.PID = strings.ToUpper(d.PID)
		t.byName[d.Name] = len(t.descriptors)
		t.descriptors = append(t.descriptors, d)
	}
	return t, nil
}

// ByName finds a descriptor by its unique name.
func (t *Table) ByName(name string) (Descriptor, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return t.descriptors[i], true
}

// ByModeAndPID finds the first descriptor requested with mode and pid.
// Hex digits compare case-insensitively.
func (t *Table) ByModeAndPID(mode, pid string) (Descriptor, bool) {
	for _, d := range t.descriptors {
		if strings.EqualFold(d.Mode, mode) && strings.EqualFold(d.PID, pid) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// FirstByMode finds the first descriptor of a mode.
func (t *Table) FirstByMode(mode string) (Descriptor, bool) {
	for _, d := range t.descriptors {
		if strings.EqualFold(d.Mode, mode) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// All returns a copy of the descriptors in table order.
func (t *Table) All() []Descriptor {
	return append([]Descriptor(nil), t.descriptors...)
}

func (t *Table) Len() int {
	return len(t.descriptors)
}

// Render writes the table as a text grid.
func (t *Table) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Command", "Bytes", "Min", "Max", "Unit", "Description"})
	table.SetAutoWrapText(false)
	for _, d := range t.descriptors {
		table.Append([]string{
			d.Name,
			d.Command(),
			strconv.Itoa(d.Bytes),
			strconv.FormatFloat(d.Min, 'f', -1, 64),
			strconv.FormatFloat(d.Max, 'f', -1, 64),
			d.Unit,
			d.Description,
		})
	}
	table.Render()
}

func (t *Table) String() string {
	var sb strings.Builder
	t.Render(&sb)
	return sb.String()
}
