package dexir

import "strings"

// The flat naming scheme every function and static is registered under.
// The interpreter uses these strings literally, so the scheme is part of
// the public contract: "CLASS_" + escaped class name, "__"-joined with
// the escaped member name.

// FormatClassName escapes a dex type descriptor ("Ljava/lang/Object;")
// into its flat class prefix ("CLASS_java__lang__Object"). Existing
// double underscores are widened first so the path separator's escape
// cannot collide with them.
func FormatClassName(descriptor string) string {
	name := strings.TrimPrefix(descriptor, "L")
	name = strings.ReplaceAll(name, "__", "____")
	name = strings.ReplaceAll(name, "/", "__")
	name = strings.TrimSuffix(name, ";")
	return "CLASS_" + name
}

// FormatMemberName escapes a method or field name: double underscores
// widen, angle brackets (as in "<init>") become double underscores.
func FormatMemberName(name string) string {
	name = strings.ReplaceAll(name, "__", "____")
	name = strings.ReplaceAll(name, "<", "__")
	name = strings.ReplaceAll(name, ">", "__")
	return name
}

// MethodKey is the flat key a method is registered and invoked under.
func MethodKey(classDescriptor, methodName string) string {
	return FormatClassName(classDescriptor) + "__" + FormatMemberName(methodName)
}

// StaticKey is the flat key of a static field. Instance fields keep their
// plain, unescaped name.
func StaticKey(classDescriptor, fieldName string) string {
	return FormatClassName(classDescriptor) + "__" + FormatMemberName(fieldName)
}
