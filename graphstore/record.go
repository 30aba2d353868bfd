package graphstore

import (
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/jacentio/tickets/ticket"
)

// first decodes the first record, or returns nil when there is none.
func first(records []*neo4j.Record) (*ticket.Ticket, error) {
	if len(records) == 0 {
		return nil, nil
	}
	t, err := decode(records[0])
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// all decodes every record into a non-nil slice.
func all(records []*neo4j.Record) ([]ticket.Ticket, error) {
	tickets := make([]ticket.Ticket, 0, len(records))
	for _, record := range records {
		t, err := decode(record)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// decode reads a record shaped as (t: Ticket node, parentId: integer or null).
func decode(record *neo4j.Record) (ticket.Ticket, error) {
	raw, ok := record.Get("t")
	if !ok {
		return ticket.Ticket{}, fmt.Errorf("record has no ticket column")
	}
	node, ok := raw.(neo4j.Node)
	if !ok {
		return ticket.Ticket{}, fmt.Errorf("ticket column is %T, not a node", raw)
	}

	id, ok := node.Props["id"].(int64)
	if !ok {
		return ticket.Ticket{}, fmt.Errorf("ticket node has no integer id")
	}
	t := ticket.Ticket{
		ID:          id,
		Title:       stringProp(node.Props, "title"),
		Description: stringProp(node.Props, "description"),
		CreatedAt:   timeProp(node.Props, "createdAt"),
		UpdatedAt:   timeProp(node.Props, "updatedAt"),
	}
	t.Completed, _ = node.Props["completed"].(bool)

	if parent, ok := record.Get("parentId"); ok && parent != nil {
		parentID, ok := parent.(int64)
		if !ok {
			return ticket.Ticket{}, fmt.Errorf("ticket %d has parentId of type %T", id, parent)
		}
		t.ParentID = ticket.Int64(parentID)
	}
	return t, nil
}

func stringProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

// timeProp accepts driver temporal values and RFC3339 strings.
func timeProp(props map[string]any, key string) time.Time {
	switch v := props[key].(type) {
	case time.Time:
		return v.UTC()
	case neo4j.LocalDateTime:
		return v.Time().UTC()
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}
