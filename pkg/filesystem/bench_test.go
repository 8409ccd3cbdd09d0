package filesystem

import (
	"testing"

	"github.com/vnykmshr/logflow/internal/testutil"
)

func BenchmarkWrite(b *testing.B) {
	sys := testutil.NewMockOsSysCalls()
	file, err := NewWithConfig("/var/log/test/access.log", Config{
		Dispatcher: testutil.NewMockDispatcher(),
		OsSysCalls: sys,
	})
	if err != nil {
		b.Fatal(err)
	}
	defer file.Close()

	entry := []byte("127.0.0.1 GET /api/items 200 12ms\n")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := file.Write(entry); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWriteParallel(b *testing.B) {
	sys := testutil.NewMockOsSysCalls()
	file, err := NewWithConfig("/var/log/test/access.log", Config{
		Dispatcher: testutil.NewMockDispatcher(),
		OsSysCalls: sys,
	})
	if err != nil {
		b.Fatal(err)
	}
	defer file.Close()

	entry := []byte("127.0.0.1 GET /api/items 200 12ms\n")
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := file.Write(entry); err != nil {
				b.Fatal(err)
			}
		}
	})
}
