package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// blockThreshold is the string length above which a value renders as a
// block section with preserved whitespace instead of inline.
const blockThreshold = 100

// expandDepth is the nesting depth below which object cards render
// default-expanded.
const expandDepth = 2

// NodeKind classifies a render node.
type NodeKind string

const (
	// KindInline is a one-line "label: value" field.
	KindInline NodeKind = "inline"
	// KindBadge is a short enum value rendered as a badge.
	KindBadge NodeKind = "badge"
	// KindBlock is a long text section with preserved whitespace.
	KindBlock NodeKind = "block"
	// KindList is a bulleted list of scalar values.
	KindList NodeKind = "list"
	// KindCard is a collapsible section for one object.
	KindCard NodeKind = "card"
	// KindCardList is a list of cards for an array of objects.
	KindCardList NodeKind = "card_list"
)

// ValueStyle distinguishes inline value presentation.
type ValueStyle string

const (
	StyleString  ValueStyle = "string"
	StyleNumber  ValueStyle = "number"
	StyleBoolean ValueStyle = "boolean"
)

// Node is one element of the derived render tree.
type Node struct {
	Kind  NodeKind   `json:"kind"`
	Label string     `json:"label,omitempty"`
	Value string     `json:"value,omitempty"`
	Style ValueStyle `json:"style,omitempty"`

	// Header is the card title, probed from the object's data.
	Header string `json:"header,omitempty"`

	// Expanded is whether a card renders open by default.
	Expanded bool `json:"expanded,omitempty"`

	// Items holds list entries or the cards of a card list.
	Items []*Node `json:"items,omitempty"`

	// Fields holds the rendered fields of a card.
	Fields []*Node `json:"fields,omitempty"`
}

// headerProbes are the object keys probed, in priority order, for a
// card's header text. The winning key is excluded from the card body.
var headerProbes = []string{"title", "name", "id", "description"}

// Interpreter renders data objects against a schema document.
type Interpreter struct {
	doc *Document
}

// NewInterpreter creates an interpreter for the given schema document.
func NewInterpreter(doc *Document) *Interpreter {
	return &Interpreter{doc: doc}
}

// Render walks every schema-declared top-level property and renders the
// matching data field. Null and absent values are skipped entirely; the
// output carries no "field missing" indicator.
func (in *Interpreter) Render(data map[string]any) ([]*Node, error) {
	var nodes []*Node
	for _, name := range in.orderedKeys(in.doc.Properties, in.doc.Order) {
		prop := in.doc.Properties[name]
		value, ok := data[name]
		if !ok || value == nil {
			continue
		}
		node, err := in.renderProperty(name, prop, value, 0)
		if err != nil {
			return nil, err
		}
		if node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

// renderProperty renders a single schema property against its value.
func (in *Interpreter) renderProperty(label string, prop *Property, value any, depth int) (*Node, error) {
	resolved, err := Resolve(prop, in.doc.Defs, map[string]bool{})
	if err != nil {
		return nil, err
	}

	switch ResolvedType(resolved) {
	case "array":
		return in.renderArray(label, resolved, value, depth)
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return in.renderScalar(label, resolved, value), nil
		}
		return in.renderCard(label, resolved, obj, depth)
	default:
		return in.renderScalar(label, resolved, value), nil
	}
}

// renderScalar renders strings, numbers and booleans.
func (in *Interpreter) renderScalar(label string, prop *Property, value any) *Node {
	switch v := value.(type) {
	case string:
		if enumMember(prop, v) {
			return &Node{Kind: KindBadge, Label: label, Value: v}
		}
		if len(v) > blockThreshold {
			return &Node{Kind: KindBlock, Label: label, Value: v, Style: StyleString}
		}
		return &Node{Kind: KindInline, Label: label, Value: v, Style: StyleString}
	case bool:
		return &Node{Kind: KindInline, Label: label, Value: strconv.FormatBool(v), Style: StyleBoolean}
	case float64:
		return &Node{Kind: KindInline, Label: label, Value: formatNumber(v), Style: StyleNumber}
	default:
		return &Node{Kind: KindInline, Label: label, Value: fmt.Sprintf("%v", v), Style: StyleString}
	}
}

// renderArray renders string arrays as bulleted lists and object arrays
// as card lists. Empty arrays render nothing.
func (in *Interpreter) renderArray(label string, prop *Property, value any, depth int) (*Node, error) {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return nil, nil
	}

	var itemProp *Property
	var err error
	if prop.Items != nil {
		itemProp, err = Resolve(prop.Items, in.doc.Defs, map[string]bool{})
		if err != nil {
			return nil, err
		}
	}

	if ResolvedType(itemProp) == "object" {
		list := &Node{Kind: KindCardList, Label: label}
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			card, err := in.renderCard("", itemProp, obj, depth+1)
			if err != nil {
				return nil, err
			}
			if card != nil {
				list.Items = append(list.Items, card)
			}
		}
		if len(list.Items) == 0 {
			return nil, nil
		}
		return list, nil
	}

	list := &Node{Kind: KindList, Label: label}
	for _, item := range items {
		if item == nil {
			continue
		}
		list.Items = append(list.Items, &Node{
			Kind:  KindInline,
			Value: fmt.Sprintf("%v", item),
			Style: StyleString,
		})
	}
	if len(list.Items) == 0 {
		return nil, nil
	}
	return list, nil
}

// renderCard renders one object as a collapsible card. The header is
// chosen by probing the data for title, name, id then description;
// whichever is found is excluded from the body fields.
func (in *Interpreter) renderCard(label string, prop *Property, obj map[string]any, depth int) (*Node, error) {
	card := &Node{
		Kind:     KindCard,
		Label:    label,
		Expanded: depth < expandDepth,
	}

	headerKey := ""
	for _, probe := range headerProbes {
		if v, ok := obj[probe].(string); ok && v != "" {
			card.Header = v
			headerKey = probe
			break
		}
	}

	var props map[string]*Property
	var order []string
	if prop != nil {
		props = prop.Properties
		order = prop.Order
	}

	for _, name := range in.orderedKeys(props, order) {
		if name == headerKey {
			continue
		}
		value, ok := obj[name]
		if !ok || value == nil {
			continue
		}
		field, err := in.renderProperty(name, props[name], value, depth+1)
		if err != nil {
			return nil, err
		}
		if field != nil {
			card.Fields = append(card.Fields, field)
		}
	}

	// Objects without schema-declared properties still render their
	// data, so loosely-specified schemas stay usable.
	if props == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			if k == headerKey {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, name := range keys {
			value := obj[name]
			if value == nil {
				continue
			}
			field, err := in.renderProperty(name, nil, value, depth+1)
			if err != nil {
				return nil, err
			}
			if field != nil {
				card.Fields = append(card.Fields, field)
			}
		}
	}

	return card, nil
}

// orderedKeys returns property names in declaration order where known,
// falling back to sorted order for deterministic output.
func (in *Interpreter) orderedKeys(props map[string]*Property, order []string) []string {
	if len(props) == 0 {
		return nil
	}
	if len(order) > 0 {
		seen := make(map[string]bool, len(order))
		out := make([]string, 0, len(props))
		for _, name := range order {
			if _, ok := props[name]; ok && !seen[name] {
				out = append(out, name)
				seen[name] = true
			}
		}
		for name := range props {
			if !seen[name] {
				out = append(out, name)
			}
		}
		return out
	}
	out := make([]string, 0, len(props))
	for name := range props {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// enumMember reports whether value is one of the property's enum values.
func enumMember(prop *Property, value string) bool {
	if prop == nil {
		return false
	}
	for _, e := range prop.Enum {
		if e == value {
			return true
		}
	}
	// anyOf members may carry the enum.
	for _, member := range prop.AnyOf {
		if member == nil {
			continue
		}
		for _, e := range member.Enum {
			if e == value {
				return true
			}
		}
	}
	return false
}

// formatNumber trims the trailing zero decimals JSON decoding leaves on
// integral values.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteMarkdown renders a node tree as Markdown for terminal output.
func WriteMarkdown(nodes []*Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		writeNode(&sb, n, 0)
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, n *Node, indent int) {
	pad := strings.Repeat("  ", indent)
	switch n.Kind {
	case KindInline:
		if n.Label != "" {
			fmt.Fprintf(sb, "%s**%s**: %s\n", pad, n.Label, n.Value)
		} else {
			fmt.Fprintf(sb, "%s%s\n", pad, n.Value)
		}
	case KindBadge:
		fmt.Fprintf(sb, "%s**%s**: `%s`\n", pad, n.Label, n.Value)
	case KindBlock:
		fmt.Fprintf(sb, "%s### %s\n\n```\n%s\n```\n\n", pad, n.Label, n.Value)
	case KindList:
		fmt.Fprintf(sb, "%s**%s**:\n", pad, n.Label)
		for _, item := range n.Items {
			fmt.Fprintf(sb, "%s- %s\n", pad, item.Value)
		}
	case KindCardList:
		fmt.Fprintf(sb, "%s**%s**:\n\n", pad, n.Label)
		for _, card := range n.Items {
			writeNode(sb, card, indent+1)
		}
	case KindCard:
		header := n.Header
		if header == "" {
			header = n.Label
		}
		if header != "" {
			fmt.Fprintf(sb, "%s#### %s\n", pad, header)
		}
		for _, field := range n.Fields {
			writeNode(sb, field, indent+1)
		}
		sb.WriteString("\n")
	}
}
