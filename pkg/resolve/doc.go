// Package resolve turns action tag parameters into ordered option sets.
//
// Three lookups exist: RecordLookup lists records of one or more arms,
// FormLookup lists the current record's instances of a repeating form and
// EventLookup the instances of a repeating event. ParseLookup builds the
// lookup for a tag; Resolver.Resolve dispatches over the closed set.
//
// A lookup naming nothing usable fails with ErrUnresolvable and the field
// keeps its text input. A valid lookup with no matching data yields an empty
// OptionSet instead.
//
// Composite values join a qualifier and a base value with the current
// separator:
//
//	@RECORDINSTANCE=1,2          -> 1.1001, 2.2001
//	@FORMINSTANCE=visit          -> enrolment_arm_1.1, follow_up_arm_1.3
//	@FORMINSTANCE=event_1.visit  -> 1, 2, 3
package resolve
