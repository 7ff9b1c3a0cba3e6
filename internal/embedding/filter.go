package embedding

// Window messages swallowed by the widget surface. Shell extensions that walk
// every taskbar child freeze the taskbar when the widget answers these.
const (
	msgGetObject         uint32 = 0x003D
	msgShowWindow        uint32 = 0x0018
	msgWindowPosChanging uint32 = 0x0046
	msgNCCalcSize        uint32 = 0x0083
	msgIMESetContext     uint32 = 0x0281
	msgIMENotify         uint32 = 0x0282
)

// SuppressedMessages is the set of messages the surface never handles.
var SuppressedMessages = map[uint32]string{
	msgGetObject:         "WM_GETOBJECT",
	msgShowWindow:        "WM_SHOWWINDOW",
	msgWindowPosChanging: "WM_WINDOWPOSCHANGING",
	msgNCCalcSize:        "WM_NCCALCSIZE",
	msgIMESetContext:     "WM_IME_SETCONTEXT",
	msgIMENotify:         "WM_IME_NOTIFY",
}

// Suppress reports whether msg must be swallowed.
func Suppress(msg uint32) bool {
	_, ok := SuppressedMessages[msg]
	return ok
}
