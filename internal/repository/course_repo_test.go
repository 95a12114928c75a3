package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightpaper/internal/database"
	"insightpaper/internal/models"
)

func TestCourseRepositoryJoin(t *testing.T) {
	db := newFakeCaller()
	db.results["spCourses_Join"] = jsonResult(`{"courseId":2,"name":"Databases","code":"XK29PQ"}`)
	repo := NewCourseRepository(db)

	course, err := repo.Join(context.Background(), 8, "XK29PQ")
	require.NoError(t, err)
	assert.Equal(t, int64(2), course.CourseID)

	steps := db.lastTx()
	assert.Equal(t, "XK29PQ", param(steps[0].Params, "code"))
	assert.Equal(t, "course_join", param(steps[1].Params, "action"))
}

func TestCourseRepositoryRecommendationNotifiesCourse(t *testing.T) {
	db := newFakeCaller()
	repo := NewCourseRepository(db)

	rec, err := repo.CreateRecommendation(context.Background(), 1, models.Recommendation{
		CourseID:    3,
		Title:       "Read chapter 2",
		DocumentIDs: []int64{10, 11},
	})
	require.NoError(t, err)
	assert.Equal(t, "Read chapter 2", rec.Title)

	steps := db.lastTx()
	require.Len(t, steps, 3)
	assert.Equal(t, database.StringList{"10", "11"}, param(steps[0].Params, "documentIds"))
	assert.Equal(t, "spNotifications_CreateForCourse", steps[1].Name)
	assert.Equal(t, database.AuditLogProcedure, steps[2].Name)
}

func TestCourseRepositoryGetStudents(t *testing.T) {
	db := newFakeCaller()
	db.results["spCourses_GetStudents"] = &database.Result{Sets: []database.ResultSet{{
		Columns: []string{"userId", "name", "email"},
		Rows: []database.Row{
			{"userId": int64(1), "name": "Ada", "email": "ada@b.com"},
			{"userId": int64(2), "name": "Alan", "email": "alan@b.com"},
		},
	}}}
	repo := NewCourseRepository(db)

	students, err := repo.GetStudents(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "alan@b.com", students[1].Email)
}
