//go:build darwin && cgo

package permission

// #cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
// #include <ApplicationServices/ApplicationServices.h>
//
// static int tg_ax_trusted(int prompt) {
//     const void *keys[] = { kAXTrustedCheckOptionPrompt };
//     const void *values[] = { prompt ? kCFBooleanTrue : kCFBooleanFalse };
//     CFDictionaryRef opts = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
//         &kCFCopyStringDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
//     Boolean trusted = AXIsProcessTrustedWithOptions(opts);
//     CFRelease(opts);
//     return trusted ? 1 : 0;
// }
//
// static int tg_listen_preflight(void) { return CGPreflightListenEventAccess() ? 1 : 0; }
// static int tg_listen_request(void) { return CGRequestListenEventAccess() ? 1 : 0; }
import "C"

func accessibilityTrusted(prompt bool) bool {
	p := C.int(0)
	if prompt {
		p = 1
	}
	return C.tg_ax_trusted(p) == 1
}

func listenEventAccess() bool { return C.tg_listen_preflight() == 1 }

func requestListenEventAccess() bool { return C.tg_listen_request() == 1 }
