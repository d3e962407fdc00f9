package resolve

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goliatone/go-instanceselect/pkg/piping"
	"github.com/goliatone/go-instanceselect/pkg/project"
)

// resolveFormInstances lists the current record's instances of a repeating
// form, in one named event or across every event where the form repeats.
func (r *Resolver) resolveFormInstances(ctx context.Context, rc Context, l FormLookup) (Result, error) {
	p := rc.Project

	var events []project.Event
	if l.Event != "" {
		event, ok := p.EventByUniqueName(l.Event)
		if !ok {
			return Result{}, fmt.Errorf("%w: unknown event %q", ErrUnresolvable, l.Event)
		}
		if !p.IsRepeatingForm(event.ID, l.Form) {
			return Result{}, fmt.Errorf("%w: form %q does not repeat in event %q", ErrUnresolvable, l.Form, l.Event)
		}
		events = []project.Event{event}
	} else {
		events = p.RepeatingFormEvents(l.Form)
	}
	if len(events) == 0 {
		return Result{}, fmt.Errorf("%w: form %q does not repeat in any event", ErrUnresolvable, l.Form)
	}

	piper, err := r.piperFor(p)
	if err != nil {
		return Result{}, err
	}

	fields := []string{l.Form + project.CompleteFieldSuffix}
	seen := map[string]struct{}{fields[0]: {}}
	for _, event := range events {
		label, _ := p.RepeatingFormLabel(event.ID, l.Form)
		for _, field := range piper.Fields(label) {
			if _, dup := seen[field]; dup {
				continue
			}
			seen[field] = struct{}{}
			fields = append(fields, field)
		}
	}

	values, err := r.store.Read(ctx, project.Query{
		Records: []string{rc.Record},
		Fields:  fields,
	})
	if err != nil {
		return Result{}, fmt.Errorf("resolve: read form instances: %w", err)
	}
	data := project.NewDataset(values)

	result := Result{Composite: len(events) > 1}
	for _, event := range events {
		template, _ := p.RepeatingFormLabel(event.ID, l.Form)
		// Only instances holding data for this form in this event are listed.
		for _, instance := range data.Instances(rc.Record, event.ID, l.Form) {
			piped, err := r.pipePlain(ctx, piper, template, piping.Scope{
				Record:   rc.Record,
				EventID:  event.ID,
				Instance: instance,
			}, data)
			if err != nil {
				return Result{}, err
			}
			label := instanceLabel(instance, piped)
			value := strconv.Itoa(instance)
			if result.Composite {
				value = r.seps.Join(event.UniqueName, value)
				label = p.EventDisplayName(event.ID) + " " + label
			}
			result.Options.Add(value, label)
		}
	}
	return result, nil
}

// resolveEventInstances lists the current record's instances of a repeating
// event, whatever forms hold their data.
func (r *Resolver) resolveEventInstances(ctx context.Context, rc Context, l EventLookup) (Result, error) {
	p := rc.Project
	event, ok := p.EventByUniqueName(l.Event)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown event %q", ErrUnresolvable, l.Event)
	}
	if !event.Repeating {
		return Result{}, fmt.Errorf("%w: event %q does not repeat", ErrUnresolvable, l.Event)
	}

	piper, err := r.piperFor(p)
	if err != nil {
		return Result{}, err
	}

	values, err := r.store.Read(ctx, project.Query{Records: []string{rc.Record}})
	if err != nil {
		return Result{}, fmt.Errorf("resolve: read event instances: %w", err)
	}
	data := project.NewDataset(values)

	var result Result
	for _, instance := range data.Instances(rc.Record, event.ID, "") {
		piped, err := r.pipePlain(ctx, piper, event.CustomLabel, piping.Scope{
			Record:   rc.Record,
			EventID:  event.ID,
			Instance: instance,
		}, data)
		if err != nil {
			return Result{}, err
		}
		result.Options.Add(strconv.Itoa(instance), instanceLabel(instance, piped))
	}
	return result, nil
}
