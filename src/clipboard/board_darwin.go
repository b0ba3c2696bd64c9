//go:build darwin && cgo

package clipboard

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
// #include <stdlib.h>
// #include <string.h>
//
// static long tg_pb_change_count(void) {
//     return (long)[[NSPasteboard generalPasteboard] changeCount];
// }
//
// static int tg_pb_item_count(void) {
//     @autoreleasepool {
//         return (int)[[[NSPasteboard generalPasteboard] pasteboardItems] count];
//     }
// }
//
// static int tg_pb_type_count(int i) {
//     @autoreleasepool {
//         NSArray *items = [[NSPasteboard generalPasteboard] pasteboardItems];
//         if (i < 0 || (NSUInteger)i >= [items count]) return 0;
//         return (int)[[[items objectAtIndex:i] types] count];
//     }
// }
//
// static char *tg_pb_type(int i, int j) {
//     @autoreleasepool {
//         NSArray *items = [[NSPasteboard generalPasteboard] pasteboardItems];
//         if (i < 0 || (NSUInteger)i >= [items count]) return NULL;
//         NSArray *types = [[items objectAtIndex:i] types];
//         if (j < 0 || (NSUInteger)j >= [types count]) return NULL;
//         return strdup([[types objectAtIndex:j] UTF8String]);
//     }
// }
//
// static void *tg_pb_data(int i, const char *type, int *n) {
//     @autoreleasepool {
//         *n = 0;
//         NSArray *items = [[NSPasteboard generalPasteboard] pasteboardItems];
//         if (i < 0 || (NSUInteger)i >= [items count]) return NULL;
//         NSData *d = [[items objectAtIndex:i] dataForType:[NSString stringWithUTF8String:type]];
//         if (d == nil || [d length] == 0) return NULL;
//         void *buf = malloc([d length]);
//         memcpy(buf, [d bytes], [d length]);
//         *n = (int)[d length];
//         return buf;
//     }
// }
//
// static char *tg_pb_string(void) {
//     @autoreleasepool {
//         NSString *s = [[NSPasteboard generalPasteboard] stringForType:NSPasteboardTypeString];
//         if (s == nil) return NULL;
//         return strdup([s UTF8String]);
//     }
// }
//
// static NSMutableArray *tg_restore_items = nil;
//
// static void tg_pb_restore_begin(void) {
//     tg_restore_items = [[NSMutableArray alloc] init];
// }
//
// static void tg_pb_restore_item(void) {
//     NSPasteboardItem *it = [[NSPasteboardItem alloc] init];
//     [tg_restore_items addObject:it];
//     [it release];
// }
//
// static void tg_pb_restore_set(const char *type, const void *data, int n) {
//     @autoreleasepool {
//         NSPasteboardItem *it = [tg_restore_items lastObject];
//         if (it == nil) return;
//         [it setData:[NSData dataWithBytes:data length:n] forType:[NSString stringWithUTF8String:type]];
//     }
// }
//
// static int tg_pb_restore_commit(void) {
//     @autoreleasepool {
//         NSPasteboard *pb = [NSPasteboard generalPasteboard];
//         [pb clearContents];
//         BOOL ok = YES;
//         if ([tg_restore_items count] > 0) {
//             ok = [pb writeObjects:tg_restore_items];
//         }
//         [tg_restore_items release];
//         tg_restore_items = nil;
//         return ok ? 1 : 0;
//     }
// }
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

// darwinBoard talks to NSPasteboard directly so that every item and every
// UTI survives the round trip; golang.design/x/clipboard only knows text and
// PNG and replaces the whole pasteboard per write.
type darwinBoard struct {
	mu sync.Mutex
}

// NewSystem returns the macOS pasteboard board.
func NewSystem() (Board, error) {
	return &darwinBoard{}, nil
}

func (b *darwinBoard) Snapshot() (Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{ChangeCount: int64(C.tg_pb_change_count())}
	n := int(C.tg_pb_item_count())
	for i := 0; i < n; i++ {
		var item Item
		types := int(C.tg_pb_type_count(C.int(i)))
		for j := 0; j < types; j++ {
			ct := C.tg_pb_type(C.int(i), C.int(j))
			if ct == nil {
				continue
			}
			var size C.int
			data := C.tg_pb_data(C.int(i), ct, &size)
			rep := Representation{Type: C.GoString(ct)}
			if data != nil {
				rep.Data = C.GoBytes(data, size)
				C.free(data)
			}
			C.free(unsafe.Pointer(ct))
			item.Representations = append(item.Representations, rep)
		}
		snap.Items = append(snap.Items, item)
	}
	return snap, nil
}

func (b *darwinBoard) Restore(s Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	C.tg_pb_restore_begin()
	for _, it := range s.Items {
		C.tg_pb_restore_item()
		for _, r := range it.Representations {
			ct := C.CString(r.Type)
			var ptr unsafe.Pointer
			if len(r.Data) > 0 {
				ptr = C.CBytes(r.Data)
			}
			C.tg_pb_restore_set(ct, ptr, C.int(len(r.Data)))
			if ptr != nil {
				C.free(ptr)
			}
			C.free(unsafe.Pointer(ct))
		}
	}
	if C.tg_pb_restore_commit() == 0 {
		return errors.New("pasteboard rejected restored items")
	}
	return nil
}

func (b *darwinBoard) ChangeCount() int64 {
	return int64(C.tg_pb_change_count())
}

func (b *darwinBoard) Text() string {
	cs := C.tg_pb_string()
	if cs == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(cs))
	return C.GoString(cs)
}
