package mockqueryable_test

import (
	"context"
	"errors"
	"iter"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pay-theory/mockqueryable"
	"github.com/pay-theory/mockqueryable/pkg/async"
	"github.com/pay-theory/mockqueryable/pkg/core"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/fixtures"
	"github.com/pay-theory/mockqueryable/pkg/mapping"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
	"github.com/pay-theory/mockqueryable/pkg/rewrite"
)

type userEntity struct {
	ID          uuid.UUID `yaml:"id"`
	FirstName   string    `yaml:"first_name"`
	LastName    string    `yaml:"last_name"`
	DateOfBirth time.Time `yaml:"date_of_birth"`
}

type userReport struct {
	FirstName string
	LastName  string
}

type userRepository interface {
	GetQueryable() *queryable.Queryable[*userEntity]
	CreateUser(ctx context.Context, user *userEntity) error
}

// myService is the kind of data-access code the doubles stand in for
type myService struct {
	repo    userRepository
	mapping *mapping.Configuration
}

func newMyService(repo userRepository) *myService {
	cfg := mapping.NewConfiguration(func(c *mapping.Configuration) {
		mapping.CreateMap[*userEntity, userReport](c).
			MapFrom("FirstName", "FirstName").
			MapFrom("LastName", "LastName")
	})
	if err := cfg.AssertConfigurationIsValid(); err != nil {
		panic(err)
	}
	return &myService{repo: repo, mapping: cfg}
}

func where(build func(x *expr.Parameter) expr.Expr) *expr.LambdaExpr {
	return expr.Lambda1("x", build)
}

func (s *myService) CreateUserIfNotExist(ctx context.Context, firstName, lastName string, dateOfBirth time.Time) error {
	q := s.repo.GetQueryable()
	day := dateOfBirth.Truncate(24 * time.Hour)

	exists, err := q.AnyAsync(ctx, where(func(x *expr.Parameter) expr.Expr {
		return expr.And(
			expr.Eq(expr.Field(x, "LastName"), expr.Const(lastName)),
			expr.Eq(expr.Field(x, "DateOfBirth"), expr.Const(dateOfBirth)),
		)
	})).Await(ctx)
	if err != nil {
		return err
	}
	if exists {
		return errors.New("User already exist")
	}

	existing, err := q.FirstOrDefaultAsync(ctx, where(func(x *expr.Parameter) expr.Expr {
		return expr.Eq(expr.Field(x, "FirstName"), expr.Const(firstName))
	})).Await(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New("User with FirstName already exist")
	}

	n, err := q.CountAsync(ctx, where(func(x *expr.Parameter) expr.Expr {
		return expr.Eq(expr.Field(x, "DateOfBirth"), expr.Const(day))
	})).Await(ctx)
	if err != nil {
		return err
	}
	if n > 3 {
		return errors.New("Users with DateOfBirth more than limit")
	}

	return s.repo.CreateUser(ctx, &userEntity{
		ID:          uuid.New(),
		FirstName:   firstName,
		LastName:    lastName,
		DateOfBirth: day,
	})
}

func (s *myService) born(from, to time.Time) *queryable.Queryable[*userEntity] {
	return s.repo.GetQueryable().
		Where(where(func(x *expr.Parameter) expr.Expr {
			return expr.Ge(expr.Field(x, "DateOfBirth"), expr.Const(from))
		})).
		Where(where(func(x *expr.Parameter) expr.Expr {
			return expr.Le(expr.Field(x, "DateOfBirth"), expr.Const(to))
		}))
}

func (s *myService) GetUserReports(ctx context.Context, from, to time.Time) ([]userReport, error) {
	reports := queryable.Select[*userEntity, userReport](s.born(from, to), where(func(x *expr.Parameter) expr.Expr {
		return expr.NewObject(reflect.TypeFor[userReport](),
			expr.Bind("FirstName", expr.Field(x, "FirstName")),
			expr.Bind("LastName", expr.Field(x, "LastName")),
		)
	}))
	return reports.ToListAsync(ctx).Await(ctx)
}

func (s *myService) GetUserReportsAutoMap(ctx context.Context, from, to time.Time) ([]userReport, error) {
	reports, err := mapping.ProjectTo[userReport](s.born(from, to), s.mapping)
	if err != nil {
		return nil, err
	}
	return reports.ToListAsync(ctx).Await(ctx)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetQueryable() *queryable.Queryable[*userEntity] {
	return m.Called().Get(0).(*queryable.Queryable[*userEntity])
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user *userEntity) error {
	return m.Called(ctx, user).Error(0)
}

// setRepository reads and writes through an entity set
type setRepository struct {
	set core.EntitySet[*userEntity]
}

func (r *setRepository) GetQueryable() *queryable.Queryable[*userEntity] { return r.set.AsQueryable() }

func (r *setRepository) CreateUser(ctx context.Context, user *userEntity) error {
	_, err := r.set.AddAsync(ctx, user).Await(ctx)
	return err
}

func date(month time.Month, day, year int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func existingUsers() []*userEntity {
	return []*userEntity{
		{LastName: "ExistLastName", DateOfBirth: date(time.January, 20, 2012)},
		{FirstName: "ExistFirstName"},
		{DateOfBirth: date(time.January, 20, 2012)},
		{DateOfBirth: date(time.January, 20, 2012)},
		{DateOfBirth: date(time.January, 20, 2012)},
	}
}

func reportUsers(t *testing.T) []*userEntity {
	t.Helper()
	users, err := fixtures.LoadFile[*userEntity]("testdata/users.yaml")
	require.NoError(t, err)
	require.Len(t, users, 5)
	return users
}

var createCases = []struct {
	firstName   string
	lastName    string
	dateOfBirth time.Time
	want        string
}{
	{"AnyFirstName", "AnyExistLastName", date(time.January, 20, 2012), "Users with DateOfBirth more than limit"},
	{"ExistFirstName", "AnyExistLastName", date(time.February, 20, 2012), "User with FirstName already exist"},
	{"AnyFirstName", "ExistLastName", date(time.January, 20, 2012), "User already exist"},
}

var reportCases = []struct {
	from, to time.Time
	want     int
}{
	{date(time.January, 20, 2012), date(time.June, 20, 2018), 5},
	{date(time.January, 20, 2012), date(time.June, 20, 2012), 4},
	{date(time.January, 20, 2012), date(time.February, 20, 2012), 3},
	{date(time.January, 20, 2010), date(time.February, 20, 2011), 0},
}

func TestCreateUserIfNotExist(t *testing.T) {
	for _, tc := range createCases {
		t.Run(tc.want, func(t *testing.T) {
			ctx := context.Background()
			users := existingUsers()
			repo := &mockUserRepository{}
			repo.On("GetQueryable").Return(mockqueryable.BuildMock(&users))

			err := newMyService(repo).CreateUserIfNotExist(ctx, tc.firstName, tc.lastName, tc.dateOfBirth)
			assert.EqualError(t, err, tc.want)
			repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		})
	}
}

func TestEntitySetCreateUserIfNotExist(t *testing.T) {
	for _, tc := range createCases {
		t.Run(tc.want, func(t *testing.T) {
			users := existingUsers()
			repo := &setRepository{set: mockqueryable.BuildMockEntitySet(&users)}

			err := newMyService(repo).CreateUserIfNotExist(context.Background(), tc.firstName, tc.lastName, tc.dateOfBirth)
			assert.EqualError(t, err, tc.want)
			assert.Len(t, users, 5)
		})
	}
}

func TestEntitySetCreateUser(t *testing.T) {
	ctx := context.Background()
	var users []*userEntity
	set := mockqueryable.BuildMockEntitySet(&users)

	err := newMyService(&setRepository{set: set}).CreateUserIfNotExist(ctx, "AnyFirstName", "ExistLastName", date(time.January, 20, 2012))
	require.NoError(t, err)

	entity, err := set.AsQueryable().Single()
	require.NoError(t, err)
	assert.Equal(t, "AnyFirstName", entity.FirstName)
	assert.Equal(t, "ExistLastName", entity.LastName)
	assert.Equal(t, date(time.January, 20, 2012), entity.DateOfBirth)
	set.AssertCalled(t, "AddAsync", mock.Anything, entity)
}

func TestCreateUserOverriddenAdd(t *testing.T) {
	ctx := context.Background()
	var users []*userEntity
	set := mockqueryable.BuildMockEntitySet(&users)
	set.UnsetDefault("AddAsync")
	set.On("AddAsync", mock.Anything, mock.Anything).Return(func(context.Context, *userEntity) *async.Future[*userEntity] {
		return async.FromError[*userEntity](errors.New("disk full"))
	})

	err := newMyService(&setRepository{set: set}).CreateUserIfNotExist(ctx, "A", "B", date(time.May, 1, 2000))
	assert.EqualError(t, err, "disk full")
	assert.Empty(t, users)
}

func TestGetUserReports(t *testing.T) {
	for _, tc := range reportCases {
		t.Run(tc.from.Format("2006-01-02")+"_"+tc.to.Format("2006-01-02"), func(t *testing.T) {
			ctx := context.Background()
			users := reportUsers(t)
			repo := &mockUserRepository{}
			repo.On("GetQueryable").Return(mockqueryable.BuildMock(&users))
			service := newMyService(repo)

			reports, err := service.GetUserReports(ctx, tc.from, tc.to)
			require.NoError(t, err)
			assert.Len(t, reports, tc.want)

			mapped, err := service.GetUserReportsAutoMap(ctx, tc.from, tc.to)
			require.NoError(t, err)
			assert.Equal(t, reports, mapped)

			bySet, err := newMyService(&setRepository{set: mockqueryable.BuildMockEntitySet(&users)}).GetUserReports(ctx, tc.from, tc.to)
			require.NoError(t, err)
			assert.Equal(t, reports, bySet)
		})
	}
}

func TestBuildMockWithPatternMatch(t *testing.T) {
	users := reportUsers(t)
	q := mockqueryable.BuildMockWith[*userEntity, rewrite.PatternMatch](&users)

	n, err := q.Count(where(func(x *expr.Parameter) expr.Expr {
		return expr.ILike(expr.Field(x, "FirstName"), expr.Const("%name3%"))
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = mockqueryable.BuildMock(&users).Count(where(func(x *expr.Parameter) expr.Expr {
		return expr.ILike(expr.Field(x, "FirstName"), expr.Const("%name3%"))
	}))
	assert.Error(t, err)
}

func TestBuildMockBulkOperations(t *testing.T) {
	users := reportUsers(t)
	q := mockqueryable.BuildMock(&users, queryable.WithRemoveFunc(queryable.SliceRemover(&users)))
	in2012 := where(func(x *expr.Parameter) expr.Expr {
		return expr.Lt(expr.Field(x, "DateOfBirth"), expr.Const(date(time.January, 1, 2013)))
	})

	n, err := q.Where(in2012).ExecuteUpdate(queryable.Assignments(queryable.SetProperty("LastName", "Updated")))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "Updated", users[3].LastName)
	assert.Equal(t, "LastName4", users[4].LastName)

	n, err = q.Where(in2012).ExecuteDelete()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, users, 1)
	assert.Equal(t, "FirstName5", users[0].FirstName)
}

func TestBuildMockDeleteWithoutRemover(t *testing.T) {
	users := reportUsers(t)
	target := users[2].ID
	q := mockqueryable.BuildMock(&users)

	n, err := q.Where(where(func(x *expr.Parameter) expr.Expr {
		return expr.Eq(expr.Field(x, "ID"), expr.Const(target))
	})).ExecuteDelete()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, users, 5)

	found, err := q.AnyAsync(context.Background(), where(func(x *expr.Parameter) expr.Expr {
		return expr.Eq(expr.Field(x, "ID"), expr.Const(target))
	})).Await(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
}

func TestBuildMockFromSeq(t *testing.T) {
	users := reportUsers(t)
	var seq iter.Seq[*userEntity] = slices.Values(users)
	q := mockqueryable.BuildMockFromSeq(seq)

	first, err := q.OrderByField("FirstName", true).FirstAsync(context.Background()).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "FirstName5", first.FirstName)

	n, err := q.ExecuteDelete()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, users, 5)
}
