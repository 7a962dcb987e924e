package background

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"
)

func randInt() int {
	sign := rand.Intn(100)
	value := rand.Intn(math.MaxInt32)
	if sign < 50 {
		return -value
	}
	return value
}

func producer(id string, data chan<- int) func(ctx context.Context) {
	return func(ctx context.Context) {
		for {
			select {
			case data <- randInt():
			case <-ctx.Done():
				fmt.Println(id, "done")
				return
			}
		}
	}
}

func consumer(id string, data <-chan int) func(ctx context.Context) {
	return func(ctx context.Context) {
		for {
			select {
			case _, ok := <-data:
				if !ok {
					fmt.Println(id, "exited on closed data channel")
					return
				}
			case <-ctx.Done():
				fmt.Println(id, "done")
				return
			}
		}
	}
}

func ExampleScope() {
	data1, data2, data3 := make(chan int), make(chan int), make(chan int)

	write1, cancelWrite1 := NewScope(context.Background())
	read1, cancelRead1 := NewScope(context.Background())
	write2, cancelWrite2 := NewScope(context.Background())
	read3, cancelRead3 := NewScope(context.Background())

	write1.Go(producer("DATA-1 *PRODUCER*", data1))
	read1.Go(consumer("DATA-1 *CONSUMER*", data1))
	write2.Go(producer("DATA-2 *PRODUCER*", data2)) // blocked due to no consumer for data2
	read3.Go(consumer("DATA-3 *CONSUMER*", data3))  // blocked due to no producer for data3

	time.Sleep(50 * time.Millisecond)

	// Cancel all background scopes in desired order:
	cancelWrite2()
	cancelRead3()
	cancelWrite1()
	cancelRead1()

	// Output:
	//
	// DATA-2 *PRODUCER* done
	// DATA-3 *CONSUMER* done
	// DATA-1 *PRODUCER* done
	// DATA-1 *CONSUMER* done
}

func ExampleScope_severalMembers() {
	data := make(chan int)

	scope, cancel := NewScope(context.Background())

	scope.Go(producer("*PRODUCER-1*", data))
	scope.Go(producer("*PRODUCER-2*", data))
	scope.Go(producer("*PRODUCER-3*", data))

	time.Sleep(50 * time.Millisecond)

	cancel()

	// Unordered output:
	//
	// *PRODUCER-1* done
	// *PRODUCER-2* done
	// *PRODUCER-3* done
}

func ExampleScope_expiredOrActive() {
	scope1, cancel1 := NewScope(context.Background())
	defer cancel1()
	scope2, cancel2 := NewScope(context.Background())
	cancel2()
	// expired condition is: err != nil, if false than scope is in active state
	fmt.Println(scope1.Context().Err() != nil, scope2.Context().Err() != nil)
	// canceled scope does not accept new members
	fmt.Println(scope1.Go(func(context.Context) {}), scope2.Go(func(context.Context) {}))

	// Output:
	// false true
	// true false
}

func TestScope_Wait(test *testing.T) {
	scope, cancel := NewScope(context.Background())
	defer cancel()

	release := make(chan struct{})
	scope.Go(func(ctx context.Context) {
		<-release
	})
	if scope.Wait(10 * time.Millisecond) {
		test.Error("Scope.Wait: expected timeout while member is running")
	}
	close(release)
	if !scope.Wait(time.Second) {
		test.Error("Scope.Wait: member is not done")
	}
}

func TestScope_ParentCancel(test *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	scope, cancel := NewScope(parent)
	defer cancel()
	stopped := make(chan struct{})
	scope.Go(func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	})
	cancelParent()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		test.Fatal("Scope member was not canceled with parent context")
	}
}
