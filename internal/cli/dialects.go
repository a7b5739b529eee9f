package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hql/internal/semantic"
)

// DialectInfo describes what a dialect accepts.
type DialectInfo struct {
	ID           string      `json:"id"`
	Entity       string      `json:"entity"`
	Elements     []string    `json:"elements"`
	Fields       []FieldInfo `json:"fields"`
	Orders       []OrderInfo `json:"orders"`
	DefaultOrder []string    `json:"default_order"`
}

// FieldInfo is one filterable field.
type FieldInfo struct {
	Key     string   `json:"key"`
	Kind    string   `json:"kind"`
	Aliases []string `json:"aliases,omitempty"`
	Values  []string `json:"values,omitempty"`
}

// OrderInfo is one sort key.
type OrderInfo struct {
	Key     string   `json:"key"`
	Aliases []string `json:"aliases,omitempty"`
}

// DialectsOutput lists dialects.
type DialectsOutput struct {
	Dialects []DialectInfo `json:"dialects"`
}

func (o DialectsOutput) String() string {
	var b strings.Builder
	for i, d := range o.Dialects {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (entity %s)\n", d.ID, d.Entity)
		fmt.Fprintf(&b, "  elements: %s\n", strings.Join(d.Elements, ", "))
		for _, f := range d.Fields {
			line := fmt.Sprintf("  field %s: %s", f.Key, f.Kind)
			if len(f.Aliases) > 0 {
				line += fmt.Sprintf(" (aka %s)", strings.Join(f.Aliases, ", "))
			}
			if len(f.Values) > 0 {
				line += fmt.Sprintf(" [%s]", strings.Join(f.Values, "|"))
			}
			b.WriteString(line + "\n")
		}
		keys := make([]string, len(d.Orders))
		for i, ord := range d.Orders {
			keys[i] = ord.Key
		}
		fmt.Fprintf(&b, "  orders: %s\n", strings.Join(keys, ", "))
		fmt.Fprintf(&b, "  default order: %s\n", strings.Join(d.DefaultOrder, ", "))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dialects [id]",
		Short: "List dialects and the fields and orders they accept",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			var out DialectsOutput
			if len(args) == 1 {
				d, ok := semantic.Lookup(semantic.DialectID(args[0]))
				if !ok {
					return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("unknown dialect %q", args[0]), nil)
				}
				out.Dialects = []DialectInfo{describeDialect(d)}
			} else {
				for _, d := range semantic.Dialects() {
					out.Dialects = append(out.Dialects, describeDialect(d))
				}
			}
			return f.Success(out)
		},
	}
}

func describeDialect(d *semantic.Dialect) DialectInfo {
	info := DialectInfo{
		ID:           string(d.ID),
		Entity:       d.Entity,
		Elements:     append(d.ElementKinds(), "field", "order"),
		Fields:       []FieldInfo{},
		Orders:       []OrderInfo{},
		DefaultOrder: []string{},
	}
	for _, fl := range d.Fields {
		info.Fields = append(info.Fields, FieldInfo{Key: fl.Key, Kind: fl.Kind.String(), Aliases: fl.Aliases, Values: fl.Values})
	}
	for _, o := range d.Orders {
		info.Orders = append(info.Orders, OrderInfo{Key: o.Key, Aliases: o.Aliases})
	}
	for _, o := range d.DefaultOrder {
		dir := "+"
		if o.Desc {
			dir = "-"
		}
		info.DefaultOrder = append(info.DefaultOrder, dir+o.Item.Key)
	}
	return info
}
