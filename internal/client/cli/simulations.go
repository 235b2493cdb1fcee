package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/simkeeper/internal/client/models"
)

var errUsage = errors.New("usage")

// updatableFields lists what update can change, in prompt order.
var updatableFields = []string{"name", "description", "notes", "configuration", "results"}

func parseID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

// List prints one page of the user's simulations.
func (a *App) List(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	var p models.ListParams
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 || i > 1 {
			return fmt.Errorf("%w: list [page] [per_page]", errUsage)
		}
		if i == 0 {
			p.Page = n
		} else {
			p.PerPage = n
		}
	}

	page, err := a.simService.List(ctx, p)
	if err != nil {
		return err
	}

	if len(page.Data) == 0 {
		printlnFn("No simulations")
		return nil
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tUPDATED")
	for _, s := range page.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.DisplayName(),
			s.CreatedAt.Local().Format("2006-01-02 15:04"), s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()

	printlnFn(strings.TrimRight(buf.String(), "\n"))
	printlnFn(fmt.Sprintf("Page %d of %d (%d total)", page.Meta.Page, page.Meta.TotalPages, page.Meta.Total))
	return nil
}

// Show prints one simulation with its documents.
func (a *App) Show(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	id, err := parseID(args, "show <id>")
	if err != nil {
		return err
	}

	s, err := a.simService.Get(ctx, id)
	if err != nil {
		return err
	}
	printSimulation(s)
	return nil
}

// Create prompts for a new simulation. The configuration is inline JSON
// or a path to a JSON file ("-" reads the rest of standard input).
func (a *App) Create(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	name, err := getSimpleText(a.reader, "Enter name (optional)", a.out)
	if err != nil {
		return err
	}
	description, err := GetMultiline(a.reader, "Enter description (optional)", a.out)
	if err != nil {
		return err
	}
	cfgSrc, err := getSimpleText(a.reader, "Configuration: JSON or file path", a.out)
	if err != nil {
		return err
	}
	configuration, err := a.document(cfgSrc)
	if err != nil {
		return err
	}
	resSrc, err := getSimpleText(a.reader, "Results: JSON or file path (optional)", a.out)
	if err != nil {
		return err
	}
	var results json.RawMessage
	if resSrc != "" {
		if results, err = a.document(resSrc); err != nil {
			return err
		}
	}
	notes, err := GetMultiline(a.reader, "Enter notes (optional)", a.out)
	if err != nil {
		return err
	}

	s, err := a.simService.Create(ctx, models.NewSimulation{
		Name:          optional(name),
		Description:   optional(description),
		Configuration: configuration,
		Results:       results,
		Notes:         optional(notes),
	})
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Simulation %d saved", s.ID))
	return nil
}

// Update asks for field/value pairs until an empty field name and sends
// them as one partial update. The value "null" clears a field.
func (a *App) Update(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	id, err := parseID(args, "update <id>")
	if err != nil {
		return err
	}

	changes := models.SimulationChanges{}
	prompt := fmt.Sprintf("Field to change (%s; empty to finish)", strings.Join(updatableFields, ", "))
	for {
		field, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return err
		}
		if field == "" {
			break
		}
		if !slices.Contains(updatableFields, field) {
			printlnFn("Unknown field:", field)
			continue
		}

		value, err := getSimpleText(a.reader, "New value", a.out)
		if err != nil {
			return err
		}

		switch {
		case value == "null":
			changes[field] = nil
		case field == "configuration" || field == "results":
			doc, err := a.document(value)
			if err != nil {
				return err
			}
			changes[field] = doc
		default:
			changes[field] = value
		}
	}

	if len(changes) == 0 {
		printlnFn("Nothing to update")
		return nil
	}

	s, err := a.simService.Update(ctx, id, changes)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Simulation %d updated", s.ID))
	return nil
}

// Delete removes one simulation.
func (a *App) Delete(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	id, err := parseID(args, "delete <id>")
	if err != nil {
		return err
	}

	if err := a.simService.Delete(ctx, id); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Simulation %d deleted", id))
	return nil
}

// BulkDelete removes several simulations. Ids the user does not own are
// silently skipped by the server.
func (a *App) BulkDelete(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: bulk-delete <id>...", errUsage)
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID([]string{arg}, "")
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	if err := a.simService.BulkDelete(ctx, ids); err != nil {
		return err
	}
	printlnFn("Simulations deleted")
	return nil
}

func (a *App) document(src string) (json.RawMessage, error) {
	doc, inline, err := inlineDocument(src)
	if inline {
		return doc, err
	}
	if src == "" {
		return nil, errors.New("a JSON document or file path is required")
	}
	return a.simService.LoadDocument(src)
}

func printSimulation(s *models.Simulation) {
	printlnFn("ID:", s.ID)
	printlnFn("Name:", s.DisplayName())
	printlnFn("Description:", valueOrDash(s.Description))
	printlnFn("Notes:", valueOrDash(s.Notes))
	printlnFn("Created:", s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	printlnFn("Updated:", s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	printlnFn("Configuration:")
	printlnFn(indentJSON(s.Configuration))
	printlnFn("Results:")
	printlnFn(indentJSON(s.Results))
}

func valueOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func indentJSON(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "  -"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "  ", "  "); err != nil {
		return "  " + string(raw)
	}
	return "  " + buf.String()
}
