//go:build darwin && cgo

package accessibility

// #cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
// #include <ApplicationServices/ApplicationServices.h>
// #include <stdlib.h>
//
// enum { TG_NONE, TG_STRING, TG_RANGE, TG_ELEMENT, TG_ARRAY, TG_ATTRSTRING };
//
// static CFTypeRef tg_system_wide(void) { return (CFTypeRef)AXUIElementCreateSystemWide(); }
//
// static CFStringRef tg_cfstr(const char *s) {
//     return CFStringCreateWithCString(kCFAllocatorDefault, s, kCFStringEncodingUTF8);
// }
//
// static CFTypeRef tg_copy_attr(CFTypeRef el, const char *name) {
//     CFStringRef attr = tg_cfstr(name);
//     CFTypeRef value = NULL;
//     AXError err = AXUIElementCopyAttributeValue((AXUIElementRef)el, attr, &value);
//     CFRelease(attr);
//     return err == kAXErrorSuccess ? value : NULL;
// }
//
// static CFTypeRef tg_copy_param_attr(CFTypeRef el, const char *name, long loc, long len) {
//     CFRange r = CFRangeMake(loc, len);
//     AXValueRef param = AXValueCreate(kAXValueCFRangeType, &r);
//     CFStringRef attr = tg_cfstr(name);
//     CFTypeRef value = NULL;
//     AXError err = AXUIElementCopyParameterizedAttributeValue((AXUIElementRef)el, attr, param, &value);
//     CFRelease(attr);
//     CFRelease(param);
//     return err == kAXErrorSuccess ? value : NULL;
// }
//
// static int tg_kind(CFTypeRef v) {
//     if (v == NULL) return TG_NONE;
//     CFTypeID t = CFGetTypeID(v);
//     if (t == CFStringGetTypeID()) return TG_STRING;
//     if (t == CFAttributedStringGetTypeID()) return TG_ATTRSTRING;
//     if (t == AXUIElementGetTypeID()) return TG_ELEMENT;
//     if (t == CFArrayGetTypeID()) return TG_ARRAY;
//     if (t == AXValueGetTypeID() && AXValueGetType((AXValueRef)v) == kAXValueCFRangeType) return TG_RANGE;
//     return TG_NONE;
// }
//
// static char *tg_string(CFTypeRef v) {
//     CFStringRef s = (CFStringRef)v;
//     if (CFGetTypeID(v) == CFAttributedStringGetTypeID()) {
//         s = CFAttributedStringGetString((CFAttributedStringRef)v);
//     }
//     CFIndex n = CFStringGetMaximumSizeForEncoding(CFStringGetLength(s), kCFStringEncodingUTF8) + 1;
//     char *buf = malloc(n);
//     if (!CFStringGetCString(s, buf, n, kCFStringEncodingUTF8)) {
//         free(buf);
//         return NULL;
//     }
//     return buf;
// }
//
// static int tg_range(CFTypeRef v, long *loc, long *len) {
//     CFRange r;
//     if (!AXValueGetValue((AXValueRef)v, kAXValueCFRangeType, &r)) return 0;
//     *loc = r.location;
//     *len = r.length;
//     return 1;
// }
//
// static long tg_array_count(CFTypeRef v) { return CFArrayGetCount((CFArrayRef)v); }
//
// static CFTypeRef tg_array_get(CFTypeRef v, long i) {
//     CFTypeRef e = CFArrayGetValueAtIndex((CFArrayRef)v, i);
//     if (e != NULL) CFRetain(e);
//     return e;
// }
//
// static void tg_release(CFTypeRef v) { if (v != NULL) CFRelease(v); }
import "C"

import "unsafe"

// axElement wraps an AXUIElementRef retained by the owning axTree.
type axElement struct{ ref C.CFTypeRef }

// axTree holds every CF reference it returns until Close.
type axTree struct {
	owned []C.CFTypeRef
}

// SystemOpener opens the macOS AX tree. Requires the Accessibility grant.
func SystemOpener() Opener {
	return func() (Tree, error) {
		t := &axTree{}
		return t, nil
	}
}

func (t *axTree) keep(ref C.CFTypeRef) C.CFTypeRef {
	if ref != 0 {
		t.owned = append(t.owned, ref)
	}
	return ref
}

func (t *axTree) SystemWide() Element {
	return axElement{ref: t.keep(C.tg_system_wide())}
}

func (t *axTree) Attribute(el Element, name string) (any, bool) {
	e, ok := el.(axElement)
	if !ok || e.ref == 0 {
		return nil, false
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return t.convert(t.keep(C.tg_copy_attr(e.ref, cname)))
}

func (t *axTree) ParameterizedAttribute(el Element, name string, param any) (any, bool) {
	e, ok := el.(axElement)
	if !ok || e.ref == 0 {
		return nil, false
	}
	rg, ok := param.(Range)
	if !ok {
		return nil, false
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	ref := C.tg_copy_param_attr(e.ref, cname, C.long(rg.Location), C.long(rg.Length))
	return t.convert(t.keep(ref))
}

func (t *axTree) Children(el Element) []Element {
	v, ok := t.Attribute(el, AttrChildren)
	if !ok {
		return nil
	}
	children, _ := v.([]Element)
	return children
}

func (t *axTree) convert(ref C.CFTypeRef) (any, bool) {
	switch C.tg_kind(ref) {
	case C.TG_STRING, C.TG_ATTRSTRING:
		cs := C.tg_string(ref)
		if cs == nil {
			return nil, false
		}
		defer C.free(unsafe.Pointer(cs))
		return C.GoString(cs), true
	case C.TG_RANGE:
		var loc, length C.long
		if C.tg_range(ref, &loc, &length) == 0 {
			return nil, false
		}
		return Range{Location: int(loc), Length: int(length)}, true
	case C.TG_ELEMENT:
		return Element(axElement{ref: ref}), true
	case C.TG_ARRAY:
		n := int(C.tg_array_count(ref))
		out := make([]Element, 0, n)
		for i := 0; i < n; i++ {
			item := t.keep(C.tg_array_get(ref, C.long(i)))
			if C.tg_kind(item) == C.TG_ELEMENT {
				out = append(out, axElement{ref: item})
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func (t *axTree) Close() error {
	for _, ref := range t.owned {
		C.tg_release(ref)
	}
	t.owned = nil
	return nil
}
