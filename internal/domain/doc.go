// Package domain defines the core business entities and errors for the
// task lifecycle: tasks, their priority/status enums, and the polymorphic
// actor references that own them.
package domain
