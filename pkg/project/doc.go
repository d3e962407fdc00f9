// Package project models the host platform objects the instance select
// resolvers read: arms with their chronological events, events with their
// repeating setup and custom labels, forms with ordered field metadata, and
// the bulk record data contracts (Reader, Writer, Store).
//
// A Project is an immutable snapshot built from a Definition, usually decoded
// from a JSON or YAML document:
//
//	id: 14
//	custom_record_label: "[last_name], [first_name]"
//	arms:
//	  - {num: 1, name: Treatment}
//	events:
//	  - id: 41
//	    unique_name: enrolment_arm_1
//	    name: Enrolment
//	    arm: 1
//	    repeating_forms:
//	      visit: "[visit_date]"
//	forms:
//	  - name: enrolment
//	    fields:
//	      - {name: record_id, element_type: text}
//
// The record id field is always the first field of the first form. Stored
// values carry an instance number of 0 outside repeating contexts.
package project
