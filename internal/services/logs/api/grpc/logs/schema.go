package logs

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ProtoFile is the schema path under api/proto that this file mirrors.
const ProtoFile = "logs/v1/logs.proto"

// Message names in logs.v1.
const (
	queryRequestName  = "QueryRequest"
	logRowName        = "LogRow"
	queryResponseName = "QueryResponse"
	writeRequestName  = "WriteRequest"
	writeResponseName = "WriteResponse"
)

var (
	fileDescriptor = mustBuildFile()

	queryRequestDesc  = fileDescriptor.Messages().ByName(queryRequestName)
	queryResponseDesc = fileDescriptor.Messages().ByName(queryResponseName)
	writeRequestDesc  = fileDescriptor.Messages().ByName(writeRequestName)
	writeResponseDesc = fileDescriptor.Messages().ByName(writeResponseName)
)

// FileDescriptor returns the runtime descriptor of logs/v1/logs.proto.
func FileDescriptor() protoreflect.FileDescriptor {
	return fileDescriptor
}

// NewQueryRequest allocates an empty logs.v1.QueryRequest.
func NewQueryRequest() *dynamicpb.Message { return dynamicpb.NewMessage(queryRequestDesc) }

// NewQueryResponse allocates an empty logs.v1.QueryResponse.
func NewQueryResponse() *dynamicpb.Message { return dynamicpb.NewMessage(queryResponseDesc) }

// NewWriteRequest allocates an empty logs.v1.WriteRequest.
func NewWriteRequest() *dynamicpb.Message { return dynamicpb.NewMessage(writeRequestDesc) }

// NewWriteResponse allocates an empty logs.v1.WriteResponse.
func NewWriteResponse() *dynamicpb.Message { return dynamicpb.NewMessage(writeResponseDesc) }

func mustBuildFile() protoreflect.FileDescriptor {
	fd, err := buildFile()
	if err != nil {
		panic(fmt.Sprintf("build %s: %v", ProtoFile, err))
	}
	return fd
}

func buildFile() (protoreflect.FileDescriptor, error) {
	var (
		str   = descriptorpb.FieldDescriptorProto_TYPE_STRING
		i64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
		msg   = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
		one   = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		many  = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
		value = "." + string((&wrapperspb.StringValue{}).ProtoReflect().Descriptor().FullName())
	)
	field := func(name string, number int32, label descriptorpb.FieldDescriptorProto_Label, typ descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
		f := &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(name),
			Number:   proto.Int32(number),
			Label:    label.Enum(),
			Type:     typ.Enum(),
			JsonName: proto.String(jsonName(name)),
		}
		if typeName != "" {
			f.TypeName = proto.String(typeName)
		}
		return f
	}
	method := func(name, in, out string, stream bool) *descriptorpb.MethodDescriptorProto {
		m := &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(in),
			OutputType: proto.String(out),
		}
		if stream {
			m.ServerStreaming = proto.Bool(true)
		}
		return m
	}

	file := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(ProtoFile),
		Package:    proto.String("logs.v1"),
		Syntax:     proto.String("proto3"),
		Dependency: []string{"google/protobuf/wrappers.proto"},
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/louisbranch/logsprovider/internal/services/logs/api/grpc/logs;logs"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String(queryRequestName),
				Field: []*descriptorpb.FieldDescriptorProto{
					field(fieldURI, 1, one, str, ""),
					field(fieldProjection, 2, many, str, ""),
					field(fieldSelection, 3, one, str, ""),
					field(fieldSelectionArgs, 4, many, str, ""),
					field(fieldSortOrder, 5, one, str, ""),
				},
			},
			{
				Name: proto.String(logRowName),
				Field: []*descriptorpb.FieldDescriptorProto{
					field(fieldID, 1, one, i64, ""),
					field(fieldMsg, 2, one, str, ""),
					field(fieldTimestampMS, 3, one, i64, ""),
				},
			},
			{
				Name: proto.String(queryResponseName),
				Field: []*descriptorpb.FieldDescriptorProto{
					field(fieldURI, 1, one, str, ""),
					field(fieldRows, 2, many, msg, ".logs.v1."+logRowName),
				},
			},
			{
				Name: proto.String(writeRequestName),
				Field: []*descriptorpb.FieldDescriptorProto{
					field(fieldURI, 1, one, str, ""),
					field(fieldValues, 2, many, msg, ".logs.v1."+writeRequestName+".ValuesEntry"),
					field(fieldSelection, 3, one, str, ""),
					field(fieldSelectionArgs, 4, many, str, ""),
				},
				NestedType: []*descriptorpb.DescriptorProto{
					{
						Name: proto.String("ValuesEntry"),
						Field: []*descriptorpb.FieldDescriptorProto{
							field("key", 1, one, str, ""),
							field("value", 2, one, str, ""),
						},
						Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
					},
				},
			},
			{
				Name: proto.String(writeResponseName),
				Field: []*descriptorpb.FieldDescriptorProto{
					field(fieldURI, 1, one, str, ""),
					field(fieldCount, 2, one, i64, ""),
				},
			},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: proto.String("LogsProvider"),
				Method: []*descriptorpb.MethodDescriptorProto{
					method("Query", ".logs.v1."+queryRequestName, ".logs.v1."+queryResponseName, false),
					method("Insert", ".logs.v1."+writeRequestName, ".logs.v1."+writeResponseName, false),
					method("Update", ".logs.v1."+writeRequestName, ".logs.v1."+writeResponseName, false),
					method("Delete", ".logs.v1."+writeRequestName, ".logs.v1."+writeResponseName, false),
					method("GetType", value, value, false),
					method("Watch", value, value, true),
				},
			},
		},
	}
	return protodesc.NewFile(file, protoregistry.GlobalFiles)
}

// jsonName is protoc's lowerCamelCase rendering of a field name.
func jsonName(name string) string {
	out := make([]byte, 0, len(name))
	upper := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_':
			upper = true
		case upper && 'a' <= c && c <= 'z':
			out = append(out, c-'a'+'A')
			upper = false
		default:
			out = append(out, c)
			upper = false
		}
	}
	return string(out)
}

func fieldOf(m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic(fmt.Sprintf("%s has no field %q", m.Descriptor().FullName(), name))
	}
	return fd
}
