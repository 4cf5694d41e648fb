package config

import (
	"reflect"
	"strings"
)

// FlattenStruct 按 mapstructure 标签把结构体展开为 "a.b.c" -> 值
// 标签为 "-" 的字段、函数以及空 map 被跳过
func FlattenStruct(prefix string, v any) map[string]any {
	out := make(map[string]any)
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return out
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return out
	}
	flattenValue(out, prefix, rv)
	return out
}

func flattenValue(out map[string]any, prefix string, rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, squash := fieldKey(field)
		if name == "-" {
			continue
		}
		value := rv.Field(i)
		key := joinKey(prefix, name)
		if squash {
			key = prefix
		}

		for value.Kind() == reflect.Ptr {
			if value.IsNil() {
				break
			}
			value = value.Elem()
		}
		switch value.Kind() {
		case reflect.Struct:
			flattenValue(out, key, value)
		case reflect.Func, reflect.Chan, reflect.Ptr, reflect.Interface:
			// 无法作为配置值
		case reflect.Map:
			if value.Len() > 0 {
				out[key] = value.Interface()
			}
		default:
			out[key] = value.Interface()
		}
	}
}

func fieldKey(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("mapstructure")
	if tag == "" {
		return strings.ToLower(field.Name), false
	}
	parts := strings.Split(tag, ",")
	squash := false
	for _, opt := range parts[1:] {
		if opt == "squash" {
			squash = true
		}
	}
	name := parts[0]
	if name == "" {
		name = strings.ToLower(field.Name)
	}
	return name, squash
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
