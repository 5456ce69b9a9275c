package benchmarks_test

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/reoring/coerce"
	"github.com/reoring/coerce/validate"
)

// ---- Helpers ----

func smallUserValidator(extra validate.ExtraPolicy) validate.Validator[map[string]any] {
	return validate.Record("User").
		Field("id", validate.Erase[string](validate.Str())).Required().
		Field("name", validate.Erase[string](validate.Str())).Optional().
		Extra(extra).
		Build()
}

func smallUserJSON() []byte {
	return []byte(`{"id":"u_1","name":"alice"}`)
}

func smallUserYAML() []byte {
	return []byte("id: u_1\nname: alice\n")
}

// generateHugeJSONArray returns a JSON array of objects of the form:
// [{"id":"obj_0","name":"n0","age":0,"active":true,"meta":{"score":0},"k0":"v0",...}, ...]
func generateHugeJSONArray(numObjects int, extraFields int) []byte {
	var buf bytes.Buffer
	buf.Grow(numObjects * (64 + extraFields*16))
	buf.WriteByte('[')
	for i := 0; i < numObjects; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		fmt.Fprintf(&buf, "\"id\":\"obj_%d\",", i)
		fmt.Fprintf(&buf, "\"name\":\"n%d\",", i)
		fmt.Fprintf(&buf, "\"age\":%d,", i)
		buf.WriteString("\"active\":" + strconv.FormatBool(i%2 == 0) + ",")
		fmt.Fprintf(&buf, "\"meta\":{\"score\":%d}", i)
		for k := 0; k < extraFields; k++ {
			fmt.Fprintf(&buf, ",\"k%d\":\"v%d_%d\"", k, i, k)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// item validator for the huge array: requires id and ignores the rest
func hugeItemValidator() validate.Validator[map[string]any] {
	return validate.Record("Item").
		Field("id", validate.Erase[string](validate.Str())).Required().
		Field("age", validate.Erase[int64](validate.Int().Ge(0))).Required().
		Build()
}

// ---- Micro benchmarks (small inputs) ----

func Benchmark_Run_Record_Small_JSONBytes(b *testing.B) {
	ctx := context.Background()
	v := smallUserValidator(validate.ExtraForbid)
	data := smallUserJSON()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := validate.RunJSON(ctx, v, data); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Run_Record_Small_JSONReader(b *testing.B) {
	ctx := context.Background()
	v := smallUserValidator(validate.ExtraForbid)
	data := smallUserJSON()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		src := coerce.JSONReader(bytes.NewReader(data))
		if _, err := validate.RunFrom(ctx, v, src); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Run_Record_Small_YAML(b *testing.B) {
	ctx := context.Background()
	v := smallUserValidator(validate.ExtraForbid)
	data := smallUserYAML()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := validate.RunYAML(ctx, v, data); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Run_Record_Small_Native(b *testing.B) {
	ctx := context.Background()
	v := smallUserValidator(validate.ExtraForbid)
	in := map[string]any{"id": "u_1", "name": "alice"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := validate.RunNative(ctx, v, in); err != nil {
			b.Fatal(err)
		}
	}
}

// Failure path: every run builds a ValidationError.
func Benchmark_Run_Record_Small_Invalid(b *testing.B) {
	ctx := context.Background()
	v := smallUserValidator(validate.ExtraForbid)
	data := []byte(`{"name":1,"zzz":true}`)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := validate.RunJSON(ctx, v, data); err == nil {
			b.Fatal("expected a validation error")
		}
	}
}

// List micro: ["1","2","3"] coerced to ints
func Benchmark_Run_List_Int_Lax(b *testing.B) {
	ctx := context.Background()
	v := validate.List[int64](validate.Int())
	data := []byte(`["1","2","3"]`)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := validate.RunJSON(ctx, v, data); err != nil {
			b.Fatal(err)
		}
	}
}

// ---- Macro benchmarks (huge JSON) ----

// 10k objects with 8 extra fields each
const (
	hugeObjects   = 10000
	hugeExtraKeys = 8
)

func Benchmark_Run_HugeArray_Objects_JSONBytes(b *testing.B) {
	ctx := context.Background()
	v := validate.List[map[string]any](hugeItemValidator())
	data := generateHugeJSONArray(hugeObjects, hugeExtraKeys)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := validate.RunJSON(ctx, v, data); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Parse_HugeArray_Only(b *testing.B) {
	data := generateHugeJSONArray(hugeObjects, hugeExtraKeys)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := coerce.ParseJSON(data); err != nil {
			b.Fatal(err)
		}
	}
}

// Batch: 64 medium documents validated sequentially vs with a worker pool.
func benchmarkBatch(b *testing.B, workers int) {
	ctx := context.Background()
	v := validate.List[map[string]any](hugeItemValidator())
	doc := generateHugeJSONArray(200, hugeExtraKeys)
	srcs := make([]coerce.Source, 64)
	for i := range srcs {
		srcs[i] = coerce.JSONBytes(doc)
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(doc) * len(srcs)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, r := range validate.RunBatch(ctx, v, srcs, validate.WithWorkers(workers)) {
			if r.Err != nil {
				b.Fatal(r.Err)
			}
		}
	}
}

func Benchmark_RunBatch_Sequential(b *testing.B) { benchmarkBatch(b, 1) }
func Benchmark_RunBatch_Parallel(b *testing.B)   { benchmarkBatch(b, 0) }
