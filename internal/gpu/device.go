// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Device errors.
var (
	// ErrUnknownBackend is returned by ParseBackend for an unrecognised name.
	ErrUnknownBackend = errors.New("gpu: unknown backend")

	// ErrNoAdapter is returned when a backend exposes no adapters.
	ErrNoAdapter = errors.New("gpu: no GPU adapters found")

	// ErrDeviceClosed is returned when using a closed device.
	ErrDeviceClosed = errors.New("gpu: device is closed")

	// ErrProvider is returned when a device provider does not expose HAL types.
	ErrProvider = errors.New("gpu: provider does not expose hal.Device and hal.Queue")
)

// submitTimeout bounds each fence wait.
const submitTimeout = 5 * time.Second

// Backend names a HAL backend.
type Backend string

// Supported backends.
const (
	// BackendNoop records commands without touching hardware.
	BackendNoop Backend = "noop"
	// BackendVulkan opens the first discrete or integrated Vulkan GPU.
	BackendVulkan Backend = "vulkan"
)

// ParseBackend returns the backend named s, case-insensitively.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendNoop, BackendVulkan:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// Device is an opened hal.Device with its queue.
//
// A Device returned by OpenDevice owns its HAL objects and destroys them on
// Close. A Device returned by WrapDevice or FromProvider borrows them from a
// host such as a window, and Close only marks it unusable.
type Device struct {
	mu       sync.Mutex
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
	owned    bool
	closed   bool
}

// OpenDevice creates an instance for backend and opens its preferred adapter.
func OpenDevice(backend Backend) (*Device, error) {
	var (
		instance hal.Instance
		err      error
	)
	switch backend {
	case BackendNoop:
		api := noop.API{}
		instance, err = api.CreateInstance(nil)
	case BackendVulkan:
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, fmt.Errorf("gpu: vulkan backend not available")
		}
		instance, err = b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, string(backend))
	}
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s instance: %w", backend, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}
	slogger().Info("gpu: device opened", "backend", string(backend), "adapter", selected.Info.Name)

	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
		owned:    true,
	}, nil
}

// WrapDevice adopts a device and queue owned by someone else.
func WrapDevice(device hal.Device, queue hal.Queue) *Device {
	return &Device{device: device, queue: queue, name: "external"}
}

// FromProvider adopts the HAL device of a provider exposing HalDevice() and
// HalQueue(), such as the gogpu window context.
func FromProvider(provider any) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, ErrProvider
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, ErrProvider
	}
	return WrapDevice(device, queue), nil
}

// HAL returns the underlying device, or nil once closed.
func (d *Device) HAL() hal.Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device
}

// Queue returns the underlying queue, or nil once closed.
func (d *Device) Queue() hal.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue
}

// Name returns the adapter name.
func (d *Device) Name() string { return d.name }

// Owned reports whether Close destroys the HAL device.
func (d *Device) Owned() bool { return d.owned }

// handles returns the device and queue or ErrDeviceClosed.
func (d *Device) handles() (hal.Device, hal.Queue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, nil, ErrDeviceClosed
	}
	return d.device, d.queue, nil
}

// Close releases the device. It is safe to call more than once.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.owned {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}

// submit finishes encoder, submits it and waits for the GPU.
func (d *Device) submit(encoder hal.CommandEncoder) error {
	device, queue, err := d.handles()
	if err != nil {
		encoder.DiscardEncoding()
		return err
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := device.Wait(fence, 1, submitTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("wait for GPU: timed out after %v", submitTimeout)
	}
	return nil
}

// beginEncoding creates a command encoder and starts recording.
func (d *Device) beginEncoding(label string) (hal.CommandEncoder, error) {
	device, _, err := d.handles()
	if err != nil {
		return nil, err
	}
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return encoder, nil
}
