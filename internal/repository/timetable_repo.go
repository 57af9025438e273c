package repository

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"school-timetable/internal/model"
	pkgerrors "school-timetable/pkg/errors"
	"school-timetable/pkg/mongodb"
)

// TimetableRepository 时间表数据访问接口
type TimetableRepository interface {
	// Create 插入一份时间表文档，返回带 _id / createdAt 的持久化副本
	Create(ctx context.Context, tt *model.Timetable) (*model.Timetable, error)
	// FindByClassName 按班级名查询，结果不含 createdAt 与 __v
	FindByClassName(ctx context.Context, className string) (*model.Timetable, error)
	// ListDistinctClassNames 列出所有不重复的班级名，顺序不保证
	ListDistinctClassNames(ctx context.Context) ([]string, error)
	// EnsureIndexes 创建 className 唯一索引；成功后不再重复创建
	EnsureIndexes(ctx context.Context) error
}

// timetableCollection *mongo.Collection 中被仓储使用的子集
type timetableCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Distinct(ctx context.Context, fieldName string, filter interface{}, opts ...*options.DistinctOptions) ([]interface{}, error)
}

const (
	opTimetableCreate  = "timetable.create"
	opTimetableFind    = "timetable.find_by_class_name"
	opTimetableList    = "timetable.list_class_names"
	opTimetableIndexes = "timetable.ensure_indexes"
)

type timetableRepo struct {
	collection  func(ctx context.Context) (timetableCollection, error)
	ensureIndex func(ctx context.Context) error
	validate    *validator.Validate
	now         func() time.Time

	// 唯一索引在首次成功前，每次 Create 都会重试
	indexMu    sync.Mutex
	indexReady bool
}

// NewTimetableRepo 创建基于 MongoDB 的 TimetableRepository
// 每次操作通过 conn 懒加载连接
func NewTimetableRepo(conn *mongodb.Conn, collection string) TimetableRepository {
	if collection == "" {
		collection = model.TimetableCollection
	}
	return &timetableRepo{
		collection: func(ctx context.Context) (timetableCollection, error) {
			return conn.Collection(ctx, collection)
		},
		ensureIndex: func(ctx context.Context) error {
			coll, err := conn.Collection(ctx, collection)
			if err != nil {
				return err
			}
			_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
				Keys:    bson.D{{Key: "className", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uk_className"),
			})
			return err
		},
		validate: newTimetableValidator(),
		now:      time.Now,
	}
}

// newTimetableValidator 校验错误中的字段名使用 json 标签（className 而非 ClassName）
func newTimetableValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (r *timetableRepo) Create(ctx context.Context, tt *model.Timetable) (*model.Timetable, error) {
	if tt == nil {
		return nil, pkgerrors.Validation(opTimetableCreate, "className", "department", "days")
	}
	if err := r.validate.Struct(tt); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return nil, pkgerrors.Validation(opTimetableCreate, fields...)
		}
		return nil, pkgerrors.Validation(opTimetableCreate)
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return nil, pkgerrors.Persistence(opTimetableCreate, err)
	}
	// 唯一索引未就绪时拒绝写入
	if err := r.ensureIndexOnce(ctx); err != nil {
		return nil, pkgerrors.Persistence(opTimetableIndexes, err)
	}

	doc := *tt
	doc.Days = make([]model.Day, len(tt.Days))
	copy(doc.Days, tt.Days)
	doc.ID = primitive.NewObjectID()
	// BSON 日期精度为毫秒，截断后返回值与库内一致
	doc.CreatedAt = r.now().UTC().Truncate(time.Millisecond)
	doc.Version = 0
	doc.Normalize()

	if _, err := coll.InsertOne(ctx, &doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, pkgerrors.Conflict(opTimetableCreate, err)
		}
		return nil, pkgerrors.Persistence(opTimetableCreate, err)
	}

	return &doc, nil
}

func (r *timetableRepo) FindByClassName(ctx context.Context, className string) (*model.Timetable, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, pkgerrors.Persistence(opTimetableFind, err)
	}

	// 历史重复数据按 _id 升序取最早的一份
	opts := options.FindOne().
		SetProjection(bson.M{"createdAt": 0, "__v": 0}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	var tt model.Timetable
	err = coll.FindOne(ctx, bson.M{"className": className}, opts).Decode(&tt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.NotFound(opTimetableFind, err)
		}
		return nil, pkgerrors.Persistence(opTimetableFind, err)
	}

	tt.Normalize()
	return &tt, nil
}

func (r *timetableRepo) ListDistinctClassNames(ctx context.Context) ([]string, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, pkgerrors.Persistence(opTimetableList, err)
	}

	values, err := coll.Distinct(ctx, "className", bson.D{})
	if err != nil {
		return nil, pkgerrors.Persistence(opTimetableList, err)
	}

	names := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	return names, nil
}

func (r *timetableRepo) EnsureIndexes(ctx context.Context) error {
	if err := r.ensureIndexOnce(ctx); err != nil {
		return pkgerrors.Persistence(opTimetableIndexes, err)
	}
	return nil
}

func (r *timetableRepo) ensureIndexOnce(ctx context.Context) error {
	r.indexMu.Lock()
	defer r.indexMu.Unlock()

	if r.indexReady {
		return nil
	}
	if err := r.ensureIndex(ctx); err != nil {
		return err
	}
	r.indexReady = true
	return nil
}
