//go:build windows

package platform

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// IUIAutomation and friends are called through their vtables; go-ole covers
// COM lifetime and the variant types.
const (
	uiaElementFromHandle       = 6
	uiaCreatePropertyCondition = 23

	elementFindFirst                = 5
	elementFindAll                  = 6
	elementCurrentBoundingRectangle = 43
	elementArrayLength              = 3
	elementArrayGetElement          = 4
	unknownRelease                  = 2

	treeScopeDescendants   = 4
	automationIDPropertyID = 30011
	controlTypePropertyID  = 30003
	buttonControlTypeID    = 50000
	sFalse                 = 1
)

const uiaErrElementNotAvailable uintptr = 0x80040201

var (
	clsidCUIAutomation = ole.NewGUID("{ff48dba4-60ef-4201-aa87-54103eef594e}")
	iidIUIAutomation   = ole.NewGUID("{30cbe57d-d9d0-452a-ab13-7ac5ac4825ee}")
)

type uiAutomation struct {
	unk *ole.IUnknown
}

var _ Automation = (*uiAutomation)(nil)

func newUIAutomation() (*uiAutomation, error) {
	// S_FALSE means COM was already initialized on this thread; it still
	// needs a matching CoUninitialize.
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return nil, fmt.Errorf("initialize com: %w", err)
		}
	}
	unk, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		ole.CoUninitialize()
		return nil, fmt.Errorf("create ui automation: %w", err)
	}
	return &uiAutomation{unk: unk}, nil
}

func (a *uiAutomation) close() {
	if a.unk != nil {
		a.unk.Release()
		a.unk = nil
	}
	ole.CoUninitialize()
}

func (a *uiAutomation) ptr() uintptr {
	return uintptr(unsafe.Pointer(a.unk))
}

func (a *uiAutomation) FindByAutomationID(root Handle, id string) (Element, error) {
	rootElem, err := a.elementFromHandle(root)
	if err != nil {
		return nil, err
	}
	defer comRelease(rootElem)

	bstr := ole.SysAllocString(id)
	defer ole.SysFreeString(bstr)
	cond, err := a.propertyCondition(automationIDPropertyID, ole.NewVariant(ole.VT_BSTR, int64(uintptr(unsafe.Pointer(bstr)))))
	if err != nil {
		return nil, err
	}
	defer comRelease(cond)

	var found uintptr
	if hr := comCall(rootElem, elementFindFirst, treeScopeDescendants, cond, uintptr(unsafe.Pointer(&found))); hr != 0 {
		return nil, hresultError("find element "+id, hr)
	}
	if found == 0 {
		return nil, nil
	}
	return &uiaElement{ptr: found}, nil
}

func (a *uiAutomation) FindButtons(root Handle) ([]Element, error) {
	rootElem, err := a.elementFromHandle(root)
	if err != nil {
		return nil, err
	}
	defer comRelease(rootElem)

	cond, err := a.propertyCondition(controlTypePropertyID, ole.NewVariant(ole.VT_I4, buttonControlTypeID))
	if err != nil {
		return nil, err
	}
	defer comRelease(cond)

	var array uintptr
	if hr := comCall(rootElem, elementFindAll, treeScopeDescendants, cond, uintptr(unsafe.Pointer(&array))); hr != 0 {
		return nil, hresultError("find buttons", hr)
	}
	if array == 0 {
		return nil, nil
	}
	defer comRelease(array)

	var length int32
	if hr := comCall(array, elementArrayLength, uintptr(unsafe.Pointer(&length))); hr != 0 {
		return nil, hresultError("element array length", hr)
	}
	elems := make([]Element, 0, length)
	for i := int32(0); i < length; i++ {
		var e uintptr
		if hr := comCall(array, elementArrayGetElement, uintptr(i), uintptr(unsafe.Pointer(&e))); hr != 0 || e == 0 {
			continue
		}
		elems = append(elems, &uiaElement{ptr: e})
	}
	return elems, nil
}

func (a *uiAutomation) elementFromHandle(h Handle) (uintptr, error) {
	var elem uintptr
	if hr := comCall(a.ptr(), uiaElementFromHandle, uintptr(h), uintptr(unsafe.Pointer(&elem))); hr != 0 {
		return 0, hresultError("element from handle", hr)
	}
	if elem == 0 {
		return 0, ErrWindowNotFound
	}
	return elem, nil
}

// propertyCondition passes the VARIANT by reference, which is how the x64
// and arm64 calling conventions lower a by-value 16-byte struct.
func (a *uiAutomation) propertyCondition(propertyID int, value ole.VARIANT) (uintptr, error) {
	var cond uintptr
	hr := comCall(a.ptr(), uiaCreatePropertyCondition, uintptr(propertyID), uintptr(unsafe.Pointer(&value)), uintptr(unsafe.Pointer(&cond)))
	if hr != 0 {
		return 0, hresultError("create property condition", hr)
	}
	return cond, nil
}

type uiaElement struct {
	ptr uintptr
}

func (e *uiaElement) BoundingRect() (Rect, error) {
	if e.ptr == 0 {
		return Rect{}, ErrElementStale
	}
	var r struct{ Left, Top, Right, Bottom int32 }
	hr := comCall(e.ptr, elementCurrentBoundingRectangle, uintptr(unsafe.Pointer(&r)))
	if hr != 0 {
		return Rect{}, hresultError("bounding rectangle", hr)
	}
	return Rect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}, nil
}

func (e *uiaElement) Release() {
	if e.ptr != 0 {
		comRelease(e.ptr)
		e.ptr = 0
	}
}

func comCall(obj uintptr, method int, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(method)*unsafe.Sizeof(uintptr(0))))
	hr, _, _ := syscall.SyscallN(fn, append([]uintptr{obj}, args...)...)
	return uintptr(uint32(hr))
}

func comRelease(obj uintptr) {
	if obj != 0 {
		comCall(obj, unknownRelease)
	}
}

func hresultError(op string, hr uintptr) error {
	if hr == uiaErrElementNotAvailable {
		return fmt.Errorf("%s: %w", op, ErrElementStale)
	}
	return fmt.Errorf("%s: %w", op, ole.NewError(hr))
}
