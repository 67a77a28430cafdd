package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/questline/internal/agent"
	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/quest"
	"github.com/jwebster45206/questline/pkg/state"
	"github.com/jwebster45206/questline/pkg/trigger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <quests.json> [route.json ...]\n", os.Args[0])
		os.Exit(1)
	}

	validator := &QuestValidator{atlas: gamemap.Default()}

	if err := validator.validateQuestFile(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Quest file is valid!")

	for _, routeFile := range os.Args[2:] {
		if err := validator.validateRouteFile(routeFile); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Route file %s is valid!\n", filepath.Base(routeFile))
	}
}

type QuestValidator struct {
	atlas    *gamemap.Atlas
	questIDs map[string]bool
	errors   []string
}

func (v *QuestValidator) validateQuestFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("quest file must have .json extension: %s", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var quests []quest.Quest
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&quests); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	if err := quest.Validate(quests); err != nil {
		v.addError(err.Error())
	}

	v.questIDs = make(map[string]bool, len(quests))
	for i := range quests {
		v.questIDs[quests[i].ID] = true
		v.validateQuest(&quests[i])
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *QuestValidator) validateQuest(q *quest.Quest) {
	v.validateIDFormat("quest ID", q.ID)

	if _, ok := v.atlas.Lookup(q.Location); !ok {
		v.addError(fmt.Sprintf("quest %s names unknown location map %d", q.ID, int(q.Location)))
	}

	for i, t := range q.Triggers {
		v.validateTrigger(q.ID, i, t)
	}

	for i, b := range q.BlockedWarps {
		if _, ok := v.atlas.Lookup(b.Map); !ok {
			v.addError(fmt.Sprintf("quest %s blocked warp %d names unknown map %d", q.ID, i, int(b.Map)))
		}
		if b.X < 0 || b.Y < 0 {
			v.addError(fmt.Sprintf("quest %s blocked warp %d has negative coordinates", q.ID, i))
		}
	}

	for i, r := range q.Script {
		v.validateScriptRule(q.ID, i, r)
	}
}

func (v *QuestValidator) validateTrigger(questID string, index int, t trigger.Trigger) {
	context := fmt.Sprintf("quest %s trigger %d", questID, index)

	switch tt := t.(type) {
	case trigger.Unknown:
		v.addError(fmt.Sprintf("%s has unknown kind '%s'", context, tt.RawKind))
	case trigger.EventCompleted:
		if tt.Flag == "" {
			v.addError(fmt.Sprintf("%s (event_completed) has empty flag", context))
		} else if !isValidFlagName(tt.Flag) {
			v.addError(fmt.Sprintf("%s flag '%s' should be UPPER_SNAKE_CASE", context, tt.Flag))
		}
	case trigger.DialogContains:
		if strings.TrimSpace(tt.Text) == "" {
			v.addError(fmt.Sprintf("%s (dialog_contains_text) has empty text and can never fire", context))
		}
	case trigger.ItemMinQuantity:
		if tt.Item == "" {
			v.addError(fmt.Sprintf("%s (item_in_inventory_min_qty) has empty item", context))
		}
		if tt.Quantity < 1 {
			v.addError(fmt.Sprintf("%s (item_in_inventory_min_qty) has quantity %d, minimum is 1", context, tt.Quantity))
		}
	case trigger.CoordInRange:
		if tt.MinX != nil && tt.MaxX != nil && *tt.MinX > *tt.MaxX {
			v.addError(fmt.Sprintf("%s has min_x > max_x", context))
		}
		if tt.MinY != nil && tt.MaxY != nil && *tt.MinY > *tt.MaxY {
			v.addError(fmt.Sprintf("%s has min_y > max_y", context))
		}
		if tt.Map == nil && tt.MinX == nil && tt.MaxX == nil && tt.MinY == nil && tt.MaxY == nil {
			v.addError(fmt.Sprintf("%s (coordinates_in_range) has no bounds and fires everywhere", context))
		}
	case trigger.BattleTypeIs:
		if _, ok := state.ParseBattleType(tt.Battle); !ok {
			v.addError(fmt.Sprintf("%s names unknown battle type '%s'", context, tt.Battle))
		}
	}
}

func (v *QuestValidator) validateScriptRule(questID string, index int, r quest.ScriptRule) {
	context := fmt.Sprintf("quest %s script rule %d", questID, index)

	if _, ok := v.atlas.Lookup(r.Map); !ok {
		v.addError(fmt.Sprintf("%s names unknown map %d", context, int(r.Map)))
	}
	if r.X < 0 || r.Y < 0 {
		v.addError(fmt.Sprintf("%s has negative coordinates", context))
	}
	if r.Times < 0 {
		v.addError(fmt.Sprintf("%s has negative times", context))
	}
	if _, ok := agent.ParseAction(r.Action); !ok && !agent.IsBuyAction(r.Action) {
		v.addError(fmt.Sprintf("%s has unrecognized action '%s'", context, r.Action))
	}
}

func (v *QuestValidator) validateRouteFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	var r quest.Route
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&r); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	if r.Quest == "" {
		v.addError("route has no quest id")
	} else if v.questIDs != nil && !v.questIDs[r.Quest] {
		v.addError(fmt.Sprintf("route names unknown quest '%s'", r.Quest))
	}

	if len(r.Legs) == 0 {
		v.addError("route has no legs")
	}
	for i, leg := range r.Legs {
		m, ok := v.atlas.Lookup(leg.Map)
		if !ok {
			v.addError(fmt.Sprintf("leg %d names unknown map %d", i, int(leg.Map)))
			continue
		}
		if len(leg.Targets) == 0 {
			v.addError(fmt.Sprintf("leg %d (%s) has no targets", i, m.Name))
		}
		for j, tgt := range leg.Targets {
			if tgt.X < 0 || tgt.Y < 0 || tgt.X >= m.Width || tgt.Y >= m.Height {
				v.addError(fmt.Sprintf("leg %d target %d (%d,%d) is outside %s (%dx%d)",
					i, j, tgt.X, tgt.Y, m.Name, m.Width, m.Height))
			}
		}
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *QuestValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var (
	validIDRegex   = regexp.MustCompile(`^[a-z][a-z0-9_-]*[a-z0-9]$|^[a-z]$`)
	validFlagRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_]*[A-Z0-9]$|^[A-Z]$`)
)

func (v *QuestValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}
	if !validIDRegex.MatchString(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase with dashes or underscores", fieldName, id))
	}
}

func isValidFlagName(name string) bool {
	return validFlagRegex.MatchString(name)
}
