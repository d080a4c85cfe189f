/*
Package eventer binds one handler to one or more (target, event type) pairs
for the duration of an activation cycle and guarantees cancellation-consistent
cleanup. It coordinates registrations while remaining decoupled from concrete
targets via interfaces.
*/
package eventer
