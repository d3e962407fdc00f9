package resolve

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-instanceselect/internal/recordid"
	"github.com/goliatone/go-instanceselect/pkg/piping"
	"github.com/goliatone/go-instanceselect/pkg/project"
)

type armRecords struct {
	arm     project.Arm
	entry   project.Event
	records []string
	labels  map[string]string
}

// resolveRecords lists the records existing in each requested arm, that is
// with a non-empty primary key at the arm's entry event.
func (r *Resolver) resolveRecords(ctx context.Context, rc Context, l RecordLookup) (Result, error) {
	p := rc.Project
	tokens := l.Arms
	if len(tokens) == 0 {
		if event, ok := p.Event(rc.EventID); ok {
			tokens = []string{strconv.Itoa(event.Arm)}
		}
	}

	var arms []*armRecords
	byEvent := make(map[int]*armRecords)
	for _, token := range tokens {
		arm, ok := p.ArmByToken(token)
		if !ok {
			continue
		}
		entry, ok := p.ArmEntryEvent(arm.Num)
		if !ok {
			continue
		}
		if _, dup := byEvent[entry.ID]; dup {
			continue
		}
		group := &armRecords{arm: arm, entry: entry}
		arms = append(arms, group)
		byEvent[entry.ID] = group
	}
	if len(arms) == 0 {
		return Result{}, nil
	}

	events := make([]int, len(arms))
	for i, group := range arms {
		events[i] = group.entry.ID
	}
	pk := p.RecordIDField()
	values, err := r.store.Read(ctx, project.Query{
		Events:  events,
		Fields:  []string{pk},
		GroupID: rc.GroupID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("resolve: read record ids: %w", err)
	}

	seen := make(map[int]map[string]struct{}, len(arms))
	for _, value := range values {
		group, ok := byEvent[value.EventID]
		if !ok || value.Field != pk || value.Instance != 0 || value.Value == "" {
			continue
		}
		if seen[value.EventID] == nil {
			seen[value.EventID] = make(map[string]struct{})
		}
		if _, dup := seen[value.EventID][value.Record]; dup {
			continue
		}
		seen[value.EventID][value.Record] = struct{}{}
		group.records = append(group.records, value.Record)
	}

	labelled := !rc.Survey && p.CustomRecordLabel() != ""
	if labelled {
		if err := r.labelRecords(ctx, rc, arms); err != nil {
			return Result{}, err
		}
	}

	result := Result{Composite: len(arms) > 1}
	for _, group := range arms {
		recordid.Sort(group.records)
		armLabel := ""
		if p.MultipleArms() {
			armLabel = group.arm.Name
		}
		for _, record := range group.records {
			value := record
			if result.Composite {
				value = r.seps.Join(strconv.Itoa(group.arm.Num), record)
			}
			display := record
			if p.DoubleDataEntry() {
				display = recordid.StripDDE(record)
			}
			var label string
			if p.CustomRecordLabel() == "" {
				label = display + " (" + armLabel + ")"
			} else {
				label = display + " " + group.labels[record] + "(" + armLabel + ")"
			}
			result.Options.Add(value, label)
		}
	}
	return result, nil
}

// labelRecords pipes the custom record label of every listed record at its
// arm entry event and appends the secondary unique field value.
func (r *Resolver) labelRecords(ctx context.Context, rc Context, arms []*armRecords) error {
	p := rc.Project
	piper, err := r.piperFor(p)
	if err != nil {
		return err
	}

	var records []string
	for _, group := range arms {
		records = append(records, group.records...)
	}
	if len(records) == 0 {
		return nil
	}

	fields := piper.Fields(p.CustomRecordLabel())
	secondary := p.SecondaryUniqueField()
	if secondary != "" {
		fields = append(fields, secondary)
	}
	values, err := r.store.Read(ctx, project.Query{Records: records, Fields: fields})
	if err != nil {
		return fmt.Errorf("resolve: read record label data: %w", err)
	}
	data := project.NewDataset(values)

	for _, group := range arms {
		group.labels = make(map[string]string, len(group.records))
		for _, record := range group.records {
			scope := piping.Scope{Record: record, EventID: group.entry.ID}
			piped, err := r.pipePlain(ctx, piper, p.CustomRecordLabel(), scope, data)
			if err != nil {
				return err
			}
			parts := make([]string, 0, 2)
			if piped != "" {
				parts = append(parts, piped)
			}
			if secondary != "" {
				if value, ok := data.Get(record, group.entry.ID, 0, secondary); ok && strings.TrimSpace(value) != "" {
					parts = append(parts, "("+piping.PlainText(value)+")")
				}
			}
			group.labels[record] = strings.Join(parts, " ")
		}
	}
	return nil
}
