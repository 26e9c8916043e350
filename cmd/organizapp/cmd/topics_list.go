package cmd

import (
	"fmt"
	"strings"

	"github.com/nfrund/organizapp/cmd/organizapp/internal/output"
	"github.com/nfrund/organizapp/internal/topicmgr"
	"github.com/spf13/cobra"
)

var (
	listOutputFormat string
	listModuleFilter string
	listScopeFilter  string
)

// topicsListCmd represents the topics list command
var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	Long: `List every topic in the catalog, optionally filtered by module or scope.

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format with metadata`,
	RunE: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) error {
	manager := topicmgr.Default()
	out := cmd.OutOrStdout()

	var topicList []*topicmgr.Topic
	if listModuleFilter != "" {
		topicList = manager.ListByModule(listModuleFilter)
	} else {
		topicList = manager.List()
	}

	if listScopeFilter != "" {
		scope := parseScope(listScopeFilter)
		if scope == "" {
			return fmt.Errorf("invalid scope %q; valid scopes: framework, module", listScopeFilter)
		}
		filtered := topicList[:0]
		for _, t := range topicList {
			if t.Scope() == scope {
				filtered = append(filtered, t)
			}
		}
		topicList = filtered
	}

	switch listOutputFormat {
	case "json":
		return output.TopicsJSON(out, topicList)
	case "table":
		if len(topicList) == 0 {
			fmt.Fprintln(out, noTopicsMessage())
			return nil
		}
		return output.TopicsTable(out, topicList)
	default:
		return fmt.Errorf("unsupported output format %q; use table or json", listOutputFormat)
	}
}

func noTopicsMessage() string {
	var filters []string
	if listModuleFilter != "" {
		filters = append(filters, fmt.Sprintf("module '%s'", listModuleFilter))
	}
	if listScopeFilter != "" {
		filters = append(filters, fmt.Sprintf("scope '%s'", listScopeFilter))
	}
	if len(filters) == 0 {
		return "No topics found"
	}
	return "No topics found matching: " + strings.Join(filters, ", ")
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(scopeStr string) topicmgr.TopicScope {
	switch strings.ToLower(scopeStr) {
	case "framework":
		return topicmgr.ScopeFramework
	case "module":
		return topicmgr.ScopeModule
	default:
		return ""
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listModuleFilter, "module", "m", "", "Filter topics by module name")
	topicsListCmd.Flags().StringVarP(&listScopeFilter, "scope", "s", "", "Filter topics by scope (framework, module)")
}
