// Package output renders catalog and store listings for the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/topicmgr"
)

// TopicDisplay represents a topic for display purposes
type TopicDisplay struct {
	Name        string         `json:"name"`
	Scope       string         `json:"scope"`
	Module      string         `json:"module"`
	Description string         `json:"description"`
	Example     string         `json:"example,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func toDisplay(t *topicmgr.Topic) TopicDisplay {
	return TopicDisplay{
		Name:        t.Name(),
		Scope:       string(t.Scope()),
		Module:      t.Module(),
		Description: t.Description(),
		Example:     t.Example(),
		Metadata:    t.Metadata(),
	}
}

// TopicsTable writes topics as an aligned table.
func TopicsTable(w io.Writer, topics []*topicmgr.Topic) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSCOPE\tMODULE\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t-----\t------\t-----------")
	for _, t := range topics {
		module := t.Module()
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name(), t.Scope(), module, truncateString(t.Description(), 60))
	}
	return tw.Flush()
}

// TopicsJSON writes topics with a count, indented.
func TopicsJSON(w io.Writer, topics []*topicmgr.Topic) error {
	displays := make([]TopicDisplay, len(topics))
	for i, t := range topics {
		displays[i] = toDisplay(t)
	}

	out := struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{
		Topics: displays,
		Count:  len(displays),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// TopicDetails writes one topic, either as JSON or as labelled lines.
func TopicDetails(w io.Writer, t *topicmgr.Topic, format string) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(toDisplay(t))
	}

	fmt.Fprintf(w, "Name:        %s\n", t.Name())
	fmt.Fprintf(w, "Scope:       %s\n", t.Scope())
	fmt.Fprintf(w, "Module:      %s\n", t.Module())
	fmt.Fprintf(w, "Description: %s\n", t.Description())
	if t.Example() != "" {
		fmt.Fprintf(w, "Example:     %s\n", t.Example())
	}

	metadata := t.Metadata()
	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "Metadata:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, metadata[k])
		}
	}
	return nil
}

// UsersTable writes users as an aligned table.
func UsersTable(w io.Writer, users []*domain.User) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAVATAR\tCREATED")
	for _, u := range users {
		avatar := u.AvatarURL
		if avatar == "" {
			avatar = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, avatar, u.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// GroupsTable writes groups as an aligned table.
func GroupsTable(w io.Writer, groups []*domain.Group) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "No groups found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tOWNER\tUPDATED")
	for _, g := range groups {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", g.ID, g.Name, g.Owner, g.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
