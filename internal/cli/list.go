package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/herald/internal/domain"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List announcements from a running daemon",
		Run:   runList,
	}

	cmd.Flags().StringP("category", "c", "", "Filter by category (primary, updates, social, promotions, debts)")
	cmd.Flags().BoolP("archived", "a", false, "Show the archive view")
	cmd.Flags().Bool("unread", false, "Only unread announcements")
	cmd.Flags().IntP("page", "p", 0, "Page number (1-based)")
	cmd.Flags().IntP("limit", "l", 20, "Max results, 0 for all")

	RootCmd.AddCommand(cmd)
}

type listPage struct {
	Items      []domain.Announcement `json:"notifications"`
	Pagination domain.Pagination     `json:"pagination"`
}

func runList(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	archived, _ := cmd.Flags().GetBool("archived")
	unread, _ := cmd.Flags().GetBool("unread")
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")

	if _, err := domain.ParseCategory(category); err != nil {
		exitErr("list", err)
	}

	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if archived {
		q.Set("archived", "true")
	}
	if unread {
		q.Set("unreadOnly", "true")
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var result listPage
	if err := newDaemonClient().get(cmd.Context(), "/api/announcements", q, &result); err != nil {
		exitErr("list", err)
	}

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(b))
		return
	}

	for _, a := range result.Items {
		fmt.Println(formatLine(a))
	}
	p := result.Pagination
	fmt.Printf("-- page %d/%d, %d total\n", p.Page, p.TotalPages, p.Total)
}
